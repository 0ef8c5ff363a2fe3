package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchflow/autopilot/internal/models"
)

// ApprovalRepository defines the interface for approval queue persistence.
// Transition is the single mutation point for the status state machine; every
// other write path is append-only or create-only.
type ApprovalRepository interface {
	Create(ctx context.Context, a *models.PendingApproval) error
	GetByID(ctx context.Context, userID, id string) (*models.PendingApproval, error)
	List(ctx context.Context, userID string, filter *models.ApprovalFilter) ([]*models.PendingApproval, error)

	// Transition atomically moves a pending record to the given terminal
	// status. Returns ErrNotFound for an unknown id and ErrAlreadyReviewed
	// when the record already left pending; in the latter case the current
	// record is returned alongside the error.
	Transition(ctx context.Context, userID, id string, to models.ApprovalStatus, reviewer string, at time.Time) (*models.PendingApproval, error)

	// SetExecutionResult records the executor outcome against an approved
	// record: the executed action id on success, the error text on failure.
	SetExecutionResult(ctx context.Context, userID, id string, executedActionID *string, executionErr *string) error
}

// SettingsRepository defines persistence for per-tenant automation settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.AutomationSettings, error)
	Create(ctx context.Context, s *models.AutomationSettings) error

	// Update persists s guarded by its pre-update Version; returns
	// ErrAlreadyReviewed-style false when the version moved underneath.
	Update(ctx context.Context, s *models.AutomationSettings) (bool, error)
}

// CounterRepository defines persistence for daily consumption counters.
type CounterRepository interface {
	Get(ctx context.Context, userID, day string) (*models.DailyConsumption, error)

	// Commit performs a single guarded increment: credits and action count
	// move only if both stay within the given limits. Returns false when the
	// headroom was consumed concurrently; counters are left untouched.
	Commit(ctx context.Context, userID, day string, cost decimal.Decimal, creditLimit decimal.Decimal, actionLimit int) (bool, error)
}

// AuditRepository defines the append-only audit trail and the executed-action
// history projection.
type AuditRepository interface {
	Append(ctx context.Context, e *models.AuditEntry) error
	ListEntries(ctx context.Context, userID string, limit, offset int) ([]*models.AuditEntry, error)
	RecordExecution(ctx context.Context, a *models.ExecutedAction) error
	ListExecutedActions(ctx context.Context, userID string, limit, offset int) ([]*models.ExecutedAction, error)
}
