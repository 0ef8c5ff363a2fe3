package repositories

import (
	"context"

	"github.com/merchflow/autopilot/internal/db"
	"github.com/merchflow/autopilot/internal/models"
)

type auditRepository struct {
	db *db.DB
}

func NewAuditRepository(database *db.DB) AuditRepository {
	return &auditRepository{db: database}
}

func (r *auditRepository) Append(ctx context.Context, e *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepository) ListEntries(ctx context.Context, userID string, limit, offset int) ([]*models.AuditEntry, error) {
	var list []*models.AuditEntry
	q := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Where("user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *auditRepository) RecordExecution(ctx context.Context, a *models.ExecutedAction) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *auditRepository) ListExecutedActions(ctx context.Context, userID string, limit, offset int) ([]*models.ExecutedAction, error) {
	var list []*models.ExecutedAction
	q := r.db.WithContext(ctx).Model(&models.ExecutedAction{}).Where("user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("executed_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
