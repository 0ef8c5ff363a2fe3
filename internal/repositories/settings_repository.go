package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/merchflow/autopilot/internal/db"
	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
)

type settingsRepository struct {
	db *db.DB
}

func NewSettingsRepository(database *db.DB) SettingsRepository {
	return &settingsRepository{db: database}
}

func (r *settingsRepository) Get(ctx context.Context, userID string) (*models.AutomationSettings, error) {
	var s models.AutomationSettings
	err := r.db.WithContext(ctx).First(&s, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) Create(ctx context.Context, s *models.AutomationSettings) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Update writes the row guarded by the version it was read at; a false return
// means another update landed first and the caller should re-read.
func (r *settingsRepository) Update(ctx context.Context, s *models.AutomationSettings) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.AutomationSettings{}).
		Where("user_id = ? AND version = ?", s.UserID, s.Version).
		Updates(map[string]interface{}{
			"global_autopilot_enabled": s.GlobalAutopilotEnabled,
			"autonomous_credit_limit":  s.AutonomousCreditLimit,
			"max_daily_actions":        s.MaxDailyActions,
			"quiet_hours_start":        s.QuietHoursStart,
			"quiet_hours_end":          s.QuietHoursEnd,
			"timezone":                 s.Timezone,
			"version":                  s.Version + 1,
			"updated_at":               time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	s.Version++
	return true, nil
}
