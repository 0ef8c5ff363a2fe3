package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/merchflow/autopilot/internal/db"
	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
)

// priorityOrder sorts urgent first, then by recency.
const priorityOrder = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at DESC"

type approvalRepository struct {
	db *db.DB
}

func NewApprovalRepository(database *db.DB) ApprovalRepository {
	return &approvalRepository{db: database}
}

func (r *approvalRepository) Create(ctx context.Context, a *models.PendingApproval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *approvalRepository) GetByID(ctx context.Context, userID, id string) (*models.PendingApproval, error) {
	var a models.PendingApproval
	err := r.db.WithContext(ctx).First(&a, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepository) List(ctx context.Context, userID string, filter *models.ApprovalFilter) ([]*models.PendingApproval, error) {
	var list []*models.PendingApproval
	q := r.db.WithContext(ctx).Model(&models.PendingApproval{}).Where("user_id = ?", userID)
	if filter != nil {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.ActionType != "" {
			q = q.Where("action_type = ?", filter.ActionType)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Order(priorityOrder).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Transition is a compare-and-set on status: the WHERE clause only matches a
// record that is still pending, so concurrent transitions cannot both win and
// review fields are written exactly once.
func (r *approvalRepository) Transition(ctx context.Context, userID, id string, to models.ApprovalStatus, reviewer string, at time.Time) (*models.PendingApproval, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingApproval{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_at": at,
			"reviewed_by": reviewer,
			"updated_at":  at,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to transition approval %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return existing, apperrors.ErrAlreadyReviewed
	}
	return r.GetByID(ctx, userID, id)
}

func (r *approvalRepository) SetExecutionResult(ctx context.Context, userID, id string, executedActionID *string, executionErr *string) error {
	return r.db.WithContext(ctx).Model(&models.PendingApproval{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"executed_action_id": executedActionID,
			"execution_error":    executionErr,
			"updated_at":         time.Now(),
		}).Error
}
