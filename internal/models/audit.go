package models

import "time"

// ActorSystem is the actor recorded when the governance layer itself performs
// a transition (guardrail-driven auto-approval, proposal intake).
const ActorSystem = "system"

// Execution provenance values for ExecutedAction.ExecutedBy.
const (
	ExecutedBySystem = "system"
	ExecutedByManual = "manual"
)

// AuditEntry is one immutable row per status transition, including system
// auto-approvals. The trail is append-only and is the sole source of truth
// for what the agent did and who let it.
type AuditEntry struct {
	ID               string         `json:"id" gorm:"primaryKey;column:id;type:varchar(255);default:gen_random_uuid()"`
	ApprovalID       string         `json:"approval_id" gorm:"column:approval_id;type:varchar(255);not null;index"`
	UserID           string         `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	FromStatus       ApprovalStatus `json:"from_status" gorm:"column:from_status;type:varchar(20)"`
	ToStatus         ApprovalStatus `json:"to_status" gorm:"column:to_status;type:varchar(20);not null"`
	Actor            string         `json:"actor" gorm:"column:actor;type:varchar(255);not null"`
	ExecutedActionID *string        `json:"executed_action_id" gorm:"column:executed_action_id;type:varchar(255)"`
	CreatedAt        time.Time      `json:"created_at" gorm:"column:created_at;type:timestamptz;autoCreateTime"`
}

func (AuditEntry) TableName() string { return "audit_entries" }

// ExecutedAction is the executed-action history served to the merchant: one
// row per successful executor call, with provenance for whether it ran
// autonomously or after a human approval.
type ExecutedAction struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	UserID     string     `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	ApprovalID string     `json:"approval_id" gorm:"column:approval_id;type:varchar(255);not null;index"`
	ActionType ActionType `json:"action_type" gorm:"column:action_type;type:varchar(50);not null"`
	ExecutedBy string     `json:"executed_by" gorm:"column:executed_by;type:varchar(20);not null"`
	ExecutedAt time.Time  `json:"executed_at" gorm:"column:executed_at;type:timestamptz;autoCreateTime"`
}

func (ExecutedAction) TableName() string { return "executed_actions" }
