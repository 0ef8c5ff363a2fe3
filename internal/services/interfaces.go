package services

import (
	"context"
	"encoding/json"

	"github.com/merchflow/autopilot/internal/models"
)

// Executor performs the actual side-effecting action against the storefront
// platform. It is an external collaborator treated as a black box that may
// fail; a failure never re-litigates the approval decision.
type Executor interface {
	Execute(ctx context.Context, userID string, actionType models.ActionType, payload json.RawMessage) (executedActionID string, err error)
}

// ApprovalService is the governance boundary between the proposal source and
// the executor: admission control, the approval state machine, bulk review
// and the executed-action history.
type ApprovalService interface {
	Submit(ctx context.Context, userID string, candidate *models.ProposalCandidate) (*SubmitResult, error)
	Get(ctx context.Context, userID, id string) (*models.PendingApproval, error)
	List(ctx context.Context, userID string, filter *models.ApprovalFilter) ([]*models.PendingApproval, error)
	Approve(ctx context.Context, userID, id, reviewer string) (*models.PendingApproval, error)
	Reject(ctx context.Context, userID, id, reviewer string) (*models.PendingApproval, error)
	BulkApprove(ctx context.Context, userID string, ids []string, reviewer string) *BulkResult
	BulkReject(ctx context.Context, userID string, ids []string, reviewer string) *BulkResult
	RetryExecution(ctx context.Context, userID, id string) (*models.PendingApproval, error)
	ListExecutedActions(ctx context.Context, userID string, limit, offset int) ([]*models.ExecutedAction, error)
	ListAuditEntries(ctx context.Context, userID string, limit, offset int) ([]*models.AuditEntry, error)
}

// SettingsService manages the per-tenant automation settings.
type SettingsService interface {
	Get(ctx context.Context, userID string) (*models.AutomationSettings, error)
	Update(ctx context.Context, userID string, patch *models.SettingsPatch) (*models.AutomationSettings, error)
}

// SubmitResult is what the proposal source gets back: the verdict and the
// queue record (pending, or approved-at-creation for autonomous executions).
type SubmitResult struct {
	Verdict  Verdict                 `json:"verdict"`
	Approval *models.PendingApproval `json:"approval"`
}

// BulkResult reports per-id outcomes so callers can say "N of M succeeded".
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkFailure distinguishes why one id in a batch did not transition; an
// already-reviewed id is reported here but is not a hard failure.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
