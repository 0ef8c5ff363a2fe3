package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
	"github.com/merchflow/autopilot/internal/repositories"
)

type approvalService struct {
	approvals repositories.ApprovalRepository
	counters  repositories.CounterRepository
	audit     repositories.AuditRepository
	settings  SettingsService
	executor  Executor
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService creates the approval coordinator.
func NewApprovalService(
	approvals repositories.ApprovalRepository,
	counters repositories.CounterRepository,
	audit repositories.AuditRepository,
	settings SettingsService,
	executor Executor,
	logger *zap.Logger,
) ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &approvalService{
		approvals: approvals,
		counters:  counters,
		audit:     audit,
		settings:  settings,
		executor:  executor,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit runs a candidate through the guardrails and either queues it for
// review or executes it autonomously. Settings are fetched fresh per call.
func (s *approvalService) Submit(ctx context.Context, userID string, candidate *models.ProposalCandidate) (*SubmitResult, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	now := s.now()
	day := settings.DayKey(now)
	counters, err := s.counters.Get(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily counters: %w", err)
	}

	decision := EvaluateGuardrails(settings, counters, candidate, now)
	s.logger.Debug("guardrail verdict",
		zap.String("user_id", userID),
		zap.String("action_type", string(candidate.ActionType)),
		zap.String("verdict", string(decision.Verdict)),
		zap.String("reason", decision.Reason))

	switch decision.Verdict {
	case VerdictDeny:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidArgument, decision.Reason)
	case VerdictRequireApproval:
		return s.queueForReview(ctx, userID, candidate)
	default:
		return s.executeAutonomously(ctx, userID, candidate, settings, day, now)
	}
}

func (s *approvalService) queueForReview(ctx context.Context, userID string, candidate *models.ProposalCandidate) (*SubmitResult, error) {
	rec := newApprovalRecord(userID, candidate)
	if err := s.approvals.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to queue approval: %w", err)
	}
	s.appendAudit(ctx, rec, "", models.StatusPending, models.ActorSystem, nil)
	s.logger.Info("proposal queued for review",
		zap.String("user_id", userID),
		zap.String("approval_id", rec.ID),
		zap.String("action_type", string(rec.ActionType)))
	return &SubmitResult{Verdict: VerdictRequireApproval, Approval: rec}, nil
}

// executeAutonomously persists an approved-at-creation record for audit
// continuity, then calls the executor. Counters move only on a successful
// completion report, through a single guarded increment.
func (s *approvalService) executeAutonomously(ctx context.Context, userID string, candidate *models.ProposalCandidate, settings *models.AutomationSettings, day string, now time.Time) (*SubmitResult, error) {
	rec := newApprovalRecord(userID, candidate)
	actor := models.ActorSystem
	rec.Status = models.StatusApproved
	rec.ReviewedAt = &now
	rec.ReviewedBy = &actor
	if err := s.approvals.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record autonomous approval: %w", err)
	}

	execID, execErr := s.executor.Execute(ctx, userID, rec.ActionType, rec.RecommendedAction)
	if execErr != nil {
		s.recordExecutionFailure(ctx, rec, execErr)
		s.appendAudit(ctx, rec, "", models.StatusApproved, models.ActorSystem, nil)
		return &SubmitResult{Verdict: VerdictAllowAutonomous, Approval: rec},
			fmt.Errorf("%w: %v", apperrors.ErrExecutorUnavailable, execErr)
	}

	committed, err := s.counters.Commit(ctx, userID, day, candidate.CreditCost, settings.AutonomousCreditLimit, settings.MaxDailyActions)
	if err != nil {
		s.logger.Error("failed to commit daily counters", zap.String("approval_id", rec.ID), zap.Error(err))
	} else if !committed {
		// A concurrent execution consumed the remaining headroom between the
		// pre-check and this commit; the counters stay at the cap.
		s.logger.Warn("daily headroom consumed concurrently; counters left at cap",
			zap.String("user_id", userID), zap.String("approval_id", rec.ID))
	}

	if err := s.approvals.SetExecutionResult(ctx, userID, rec.ID, &execID, nil); err != nil {
		s.logger.Error("failed to link executed action", zap.String("approval_id", rec.ID), zap.Error(err))
	}
	rec.ExecutedActionID = &execID
	s.appendAudit(ctx, rec, "", models.StatusApproved, models.ActorSystem, &execID)
	s.recordExecution(ctx, rec, execID, models.ExecutedBySystem)
	s.logger.Info("autonomous action executed",
		zap.String("user_id", userID),
		zap.String("approval_id", rec.ID),
		zap.String("executed_action_id", execID))
	return &SubmitResult{Verdict: VerdictAllowAutonomous, Approval: rec}, nil
}

func (s *approvalService) Get(ctx context.Context, userID, id string) (*models.PendingApproval, error) {
	return s.approvals.GetByID(ctx, userID, id)
}

func (s *approvalService) List(ctx context.Context, userID string, filter *models.ApprovalFilter) ([]*models.PendingApproval, error) {
	if filter != nil {
		if filter.Status != "" && filter.Status != models.StatusPending && filter.Status != models.StatusApproved && filter.Status != models.StatusRejected {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidArgument, filter.Status)
		}
		if filter.ActionType != "" && !filter.ActionType.Valid() {
			return nil, fmt.Errorf("%w: unknown action type %q", apperrors.ErrInvalidArgument, filter.ActionType)
		}
	}
	return s.approvals.List(ctx, userID, filter)
}

// Approve transitions a pending record and hands its payload to the executor.
// A repeated approve is a no-op that returns the current record with
// ErrAlreadyReviewed; it never causes a second executor call. An executor
// failure leaves the record approved with the error recorded against it.
func (s *approvalService) Approve(ctx context.Context, userID, id, reviewer string) (*models.PendingApproval, error) {
	now := s.now()
	rec, err := s.approvals.Transition(ctx, userID, id, models.StatusApproved, reviewer, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyReviewed) {
			return rec, err
		}
		return nil, err
	}

	execID, execErr := s.executor.Execute(ctx, userID, rec.ActionType, rec.RecommendedAction)
	if execErr != nil {
		s.recordExecutionFailure(ctx, rec, execErr)
		s.appendAudit(ctx, rec, models.StatusPending, models.StatusApproved, reviewer, nil)
		return rec, fmt.Errorf("%w: %v", apperrors.ErrExecutorUnavailable, execErr)
	}

	// Manually approved actions are exempt from the daily caps; they are
	// logged but never consume the autonomous budget.
	if err := s.approvals.SetExecutionResult(ctx, userID, rec.ID, &execID, nil); err != nil {
		s.logger.Error("failed to link executed action", zap.String("approval_id", rec.ID), zap.Error(err))
	}
	rec.ExecutedActionID = &execID
	s.appendAudit(ctx, rec, models.StatusPending, models.StatusApproved, reviewer, &execID)
	s.recordExecution(ctx, rec, execID, models.ExecutedByManual)
	s.logger.Info("approval executed",
		zap.String("user_id", userID),
		zap.String("approval_id", rec.ID),
		zap.String("reviewer", reviewer),
		zap.String("executed_action_id", execID))
	return rec, nil
}

// Reject transitions a pending record with no executor call;
// executed_action_id stays null permanently.
func (s *approvalService) Reject(ctx context.Context, userID, id, reviewer string) (*models.PendingApproval, error) {
	rec, err := s.approvals.Transition(ctx, userID, id, models.StatusRejected, reviewer, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyReviewed) {
			return rec, err
		}
		return nil, err
	}
	s.appendAudit(ctx, rec, models.StatusPending, models.StatusRejected, reviewer, nil)
	s.logger.Info("approval rejected",
		zap.String("user_id", userID),
		zap.String("approval_id", rec.ID),
		zap.String("reviewer", reviewer))
	return rec, nil
}

func (s *approvalService) BulkApprove(ctx context.Context, userID string, ids []string, reviewer string) *BulkResult {
	return s.bulk(ctx, userID, ids, reviewer, s.Approve)
}

func (s *approvalService) BulkReject(ctx context.Context, userID string, ids []string, reviewer string) *BulkResult {
	return s.bulk(ctx, userID, ids, reviewer, s.Reject)
}

// bulk fans each id through the single-item transition independently: one
// failure never aborts the batch and there is no rollback. An executor
// failure still counts as succeeded because the decision itself landed.
func (s *approvalService) bulk(ctx context.Context, userID string, ids []string, reviewer string, op func(context.Context, string, string, string) (*models.PendingApproval, error)) *BulkResult {
	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		_, err := op(ctx, userID, id, reviewer)
		switch {
		case err == nil:
			result.Succeeded = append(result.Succeeded, id)
		case errors.Is(err, apperrors.ErrExecutorUnavailable):
			result.Succeeded = append(result.Succeeded, id)
		case errors.Is(err, apperrors.ErrAlreadyReviewed):
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: "already reviewed"})
		case errors.Is(err, apperrors.ErrNotFound):
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: "not found"})
		default:
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: err.Error()})
		}
	}
	return result
}

// RetryExecution re-runs the executor for an approved record whose earlier
// execution failed. The human decision is never re-asked; a record that
// already executed is returned unchanged.
func (s *approvalService) RetryExecution(ctx context.Context, userID, id string) (*models.PendingApproval, error) {
	rec, err := s.approvals.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: cannot execute record with status %s", apperrors.ErrInvalidArgument, rec.Status)
	}
	if rec.ExecutedActionID != nil {
		return rec, nil
	}

	execID, execErr := s.executor.Execute(ctx, userID, rec.ActionType, rec.RecommendedAction)
	if execErr != nil {
		s.recordExecutionFailure(ctx, rec, execErr)
		return rec, fmt.Errorf("%w: %v", apperrors.ErrExecutorUnavailable, execErr)
	}
	if err := s.approvals.SetExecutionResult(ctx, userID, rec.ID, &execID, nil); err != nil {
		s.logger.Error("failed to link executed action", zap.String("approval_id", rec.ID), zap.Error(err))
	}
	rec.ExecutedActionID = &execID
	rec.ExecutionError = nil
	s.appendAudit(ctx, rec, models.StatusApproved, models.StatusApproved, models.ActorSystem, &execID)
	s.recordExecution(ctx, rec, execID, models.ExecutedByManual)
	s.logger.Info("execution retry succeeded",
		zap.String("user_id", userID),
		zap.String("approval_id", rec.ID),
		zap.String("executed_action_id", execID))
	return rec, nil
}

func (s *approvalService) ListExecutedActions(ctx context.Context, userID string, limit, offset int) ([]*models.ExecutedAction, error) {
	return s.audit.ListExecutedActions(ctx, userID, limit, offset)
}

func (s *approvalService) ListAuditEntries(ctx context.Context, userID string, limit, offset int) ([]*models.AuditEntry, error) {
	return s.audit.ListEntries(ctx, userID, limit, offset)
}

func (s *approvalService) appendAudit(ctx context.Context, rec *models.PendingApproval, from, to models.ApprovalStatus, actor string, executedActionID *string) {
	entry := &models.AuditEntry{
		ApprovalID:       rec.ID,
		UserID:           rec.UserID,
		FromStatus:       from,
		ToStatus:         to,
		Actor:            actor,
		ExecutedActionID: executedActionID,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", zap.String("approval_id", rec.ID), zap.Error(err))
	}
}

func (s *approvalService) recordExecution(ctx context.Context, rec *models.PendingApproval, execID, executedBy string) {
	exec := &models.ExecutedAction{
		ID:         execID,
		UserID:     rec.UserID,
		ApprovalID: rec.ID,
		ActionType: rec.ActionType,
		ExecutedBy: executedBy,
	}
	if err := s.audit.RecordExecution(ctx, exec); err != nil {
		s.logger.Error("failed to record executed action", zap.String("approval_id", rec.ID), zap.Error(err))
	}
}

func (s *approvalService) recordExecutionFailure(ctx context.Context, rec *models.PendingApproval, execErr error) {
	msg := execErr.Error()
	rec.ExecutionError = &msg
	if err := s.approvals.SetExecutionResult(ctx, rec.UserID, rec.ID, nil, &msg); err != nil {
		s.logger.Error("failed to record execution failure", zap.String("approval_id", rec.ID), zap.Error(err))
	}
	s.logger.Warn("executor call failed; decision persisted",
		zap.String("user_id", rec.UserID),
		zap.String("approval_id", rec.ID),
		zap.String("error", msg))
}

func newApprovalRecord(userID string, candidate *models.ProposalCandidate) *models.PendingApproval {
	priority := candidate.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	return &models.PendingApproval{
		ID:                uuid.NewString(),
		UserID:            userID,
		ActionType:        candidate.ActionType,
		EntityID:          candidate.EntityID,
		EntityType:        candidate.EntityType,
		RecommendedAction: candidate.Payload,
		AIReasoning:       candidate.Reasoning,
		EstimatedImpact:   candidate.EstimatedImpact,
		CreditCost:        candidate.CreditCost,
		Priority:          priority,
		Status:            models.StatusPending,
	}
}
