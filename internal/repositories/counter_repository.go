package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/merchflow/autopilot/internal/db"
	"github.com/merchflow/autopilot/internal/models"
)

type counterRepository struct {
	db *db.DB
}

func NewCounterRepository(database *db.DB) CounterRepository {
	return &counterRepository{db: database}
}

func (r *counterRepository) Get(ctx context.Context, userID, day string) (*models.DailyConsumption, error) {
	var c models.DailyConsumption
	err := r.db.WithContext(ctx).First(&c, "user_id = ? AND day = ?", userID, day).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// A missing row means nothing consumed yet today.
			return &models.DailyConsumption{UserID: userID, Day: day, CreditsSpent: decimal.Zero}, nil
		}
		return nil, err
	}
	return &c, nil
}

// Commit increments the day's counters only if both stay within the limits.
// The guard and the increment are one UPDATE statement, so two executions
// racing for the last slice of headroom cannot both get it (increment-and-
// check, not check-then-increment).
func (r *counterRepository) Commit(ctx context.Context, userID, day string, cost decimal.Decimal, creditLimit decimal.Decimal, actionLimit int) (bool, error) {
	if err := r.ensureRow(ctx, userID, day); err != nil {
		return false, err
	}
	// Decimal parameters bind as strings; the casts keep the arithmetic and
	// the guard numeric on every driver.
	res := r.db.WithContext(ctx).Exec(
		`UPDATE daily_consumption
		 SET credits_spent = credits_spent + CAST(? AS DECIMAL(20,4)), actions_executed = actions_executed + 1, updated_at = ?
		 WHERE user_id = ? AND day = ?
		   AND credits_spent + CAST(? AS DECIMAL(20,4)) <= CAST(? AS DECIMAL(20,4))
		   AND actions_executed + 1 <= ?`,
		cost, time.Now(), userID, day, cost, creditLimit, actionLimit)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *counterRepository) ensureRow(ctx context.Context, userID, day string) error {
	row := &models.DailyConsumption{UserID: userID, Day: day, CreditsSpent: decimal.Zero}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
