package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyConsumption tracks what autonomous executions have consumed for one
// tenant on one merchant-local day. Rows only move forward: the counters are
// incremented when the executor reports success, never on proposal, rejection
// or failure, and reset by rolling over to a new day key.
type DailyConsumption struct {
	UserID string `json:"user_id" gorm:"primaryKey;column:user_id;type:varchar(255)"`

	// Day is the merchant-local date, formatted 2006-01-02.
	Day string `json:"day" gorm:"primaryKey;column:day;type:varchar(10)"`

	CreditsSpent    decimal.Decimal `json:"credits_spent" gorm:"column:credits_spent;type:decimal(20,4);not null;default:0"`
	ActionsExecuted int             `json:"actions_executed" gorm:"column:actions_executed;type:integer;not null;default:0"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (DailyConsumption) TableName() string { return "daily_consumption" }
