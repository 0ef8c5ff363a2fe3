package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchflow/autopilot/internal/errors"
)

const (
	minCreditLimit = 1
	maxCreditLimit = 1000
	minutesPerDay  = 24 * 60
)

// AutomationSettings is the per-merchant automation policy, one row per
// tenant. Mutated only by the merchant or an admin override, never by the
// agent. It is fetched fresh on every guardrail evaluation; Version supports
// optimistic concurrency on updates.
type AutomationSettings struct {
	ID                     string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255);default:gen_random_uuid()"`
	UserID                 string          `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;uniqueIndex"`
	GlobalAutopilotEnabled bool            `json:"global_autopilot_enabled" gorm:"column:global_autopilot_enabled;type:boolean;not null;default:false"`
	AutonomousCreditLimit  decimal.Decimal `json:"autonomous_credit_limit" gorm:"column:autonomous_credit_limit;type:decimal(20,4);not null"`
	MaxDailyActions        int             `json:"max_daily_actions" gorm:"column:max_daily_actions;type:integer;not null"`

	// Quiet hours as minutes since local midnight, half-open [start, end).
	// start > end means the window wraps midnight; start == end disables it.
	QuietHoursStart int `json:"quiet_hours_start" gorm:"column:quiet_hours_start;type:integer;not null;default:0"`
	QuietHoursEnd   int `json:"quiet_hours_end" gorm:"column:quiet_hours_end;type:integer;not null;default:0"`

	// Timezone is the merchant's IANA zone; day boundaries for the daily
	// counters and the quiet-hours clock are computed in this zone, not UTC.
	Timezone string `json:"timezone" gorm:"column:timezone;type:varchar(64);not null;default:'UTC'"`

	Version   int       `json:"version" gorm:"column:version;type:integer;not null;default:1"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (AutomationSettings) TableName() string { return "automation_settings" }

// DefaultAutomationSettings returns the settings a tenant starts with:
// autopilot off (every action queued for review), 100 credits and 20 actions
// per day once enabled, quiet hours 9 PM to 9 AM local time.
func DefaultAutomationSettings(userID string) *AutomationSettings {
	return &AutomationSettings{
		UserID:                 userID,
		GlobalAutopilotEnabled: false,
		AutonomousCreditLimit:  decimal.NewFromInt(100),
		MaxDailyActions:        20,
		QuietHoursStart:        21 * 60,
		QuietHoursEnd:          9 * 60,
		Timezone:               "UTC",
		Version:                1,
	}
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	GlobalAutopilotEnabled *bool   `json:"global_autopilot_enabled"`
	AutonomousCreditLimit  *int    `json:"autonomous_credit_limit"`
	MaxDailyActions        *int    `json:"max_daily_actions"`
	QuietHoursStart        *int    `json:"quiet_hours_start"`
	QuietHoursEnd          *int    `json:"quiet_hours_end"`
	Timezone               *string `json:"timezone"`
}

// Validate checks patch fields against their allowed ranges.
func (p *SettingsPatch) Validate() error {
	if p.AutonomousCreditLimit != nil {
		if *p.AutonomousCreditLimit < minCreditLimit || *p.AutonomousCreditLimit > maxCreditLimit {
			return &errors.ErrValidation{Field: "autonomous_credit_limit", Message: "must be between 1 and 1000"}
		}
	}
	if p.MaxDailyActions != nil && *p.MaxDailyActions < 1 {
		return &errors.ErrValidation{Field: "max_daily_actions", Message: "must be at least 1"}
	}
	if p.QuietHoursStart != nil && (*p.QuietHoursStart < 0 || *p.QuietHoursStart >= minutesPerDay) {
		return &errors.ErrValidation{Field: "quiet_hours_start", Message: "must be between 0 and 1439"}
	}
	if p.QuietHoursEnd != nil && (*p.QuietHoursEnd < 0 || *p.QuietHoursEnd >= minutesPerDay) {
		return &errors.ErrValidation{Field: "quiet_hours_end", Message: "must be between 0 and 1439"}
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return &errors.ErrValidation{Field: "timezone", Message: "unknown IANA timezone"}
		}
	}
	return nil
}

// Apply merges the patch into s.
func (s *AutomationSettings) Apply(p *SettingsPatch) {
	if p.GlobalAutopilotEnabled != nil {
		s.GlobalAutopilotEnabled = *p.GlobalAutopilotEnabled
	}
	if p.AutonomousCreditLimit != nil {
		s.AutonomousCreditLimit = decimal.NewFromInt(int64(*p.AutonomousCreditLimit))
	}
	if p.MaxDailyActions != nil {
		s.MaxDailyActions = *p.MaxDailyActions
	}
	if p.QuietHoursStart != nil {
		s.QuietHoursStart = *p.QuietHoursStart
	}
	if p.QuietHoursEnd != nil {
		s.QuietHoursEnd = *p.QuietHoursEnd
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
}

// Location resolves the merchant timezone, falling back to UTC if the stored
// name no longer loads.
func (s *AutomationSettings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InQuietHours reports whether now falls inside the quiet-hours window,
// evaluated on the merchant's local clock.
func (s *AutomationSettings) InQuietHours(now time.Time) bool {
	if s.QuietHoursStart == s.QuietHoursEnd {
		return false
	}
	local := now.In(s.Location())
	minute := local.Hour()*60 + local.Minute()
	if s.QuietHoursStart < s.QuietHoursEnd {
		return minute >= s.QuietHoursStart && minute < s.QuietHoursEnd
	}
	// Window wraps midnight.
	return minute >= s.QuietHoursStart || minute < s.QuietHoursEnd
}

// DayKey returns the rolling-day bucket for now in the merchant's timezone.
func (s *AutomationSettings) DayKey(now time.Time) string {
	return now.In(s.Location()).Format("2006-01-02")
}
