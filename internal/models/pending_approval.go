package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchflow/autopilot/internal/errors"
)

// ActionType is the closed set of actions the agent may propose. New kinds of
// action are added here, never by branching on unknown strings downstream.
type ActionType string

const (
	ActionOptimizeSEO      ActionType = "optimize_seo"
	ActionSendCampaign     ActionType = "send_campaign"
	ActionSendCartRecovery ActionType = "send_cart_recovery"
	ActionAdjustPrice      ActionType = "adjust_price"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionOptimizeSEO, ActionSendCampaign, ActionSendCartRecovery, ActionAdjustPrice:
		return true
	}
	return false
}

// CustomerFacing reports whether executing t sends a message to a customer.
// Customer-facing actions are the ones suppressed during quiet hours.
func (t ActionType) CustomerFacing() bool {
	switch t {
	case ActionSendCampaign, ActionSendCartRecovery:
		return true
	case ActionOptimizeSEO, ActionAdjustPrice:
		return false
	}
	return false
}

// Priority affects sort and display order only, never admission logic.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight returns the sort weight; lower sorts first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// ApprovalStatus is the three-state approval lifecycle. A record is immutable
// once its status is no longer pending.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// PendingApproval is one proposed action awaiting (or past) merchant review.
type PendingApproval struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id;type:varchar(255);default:gen_random_uuid()"`
	UserID     string     `json:"user_id" gorm:"column:user_id;type:varchar(255);not null;index"`
	ActionType ActionType `json:"action_type" gorm:"column:action_type;type:varchar(50);not null;index"`
	EntityID   string     `json:"entity_id" gorm:"column:entity_id;type:varchar(255)"`
	EntityType string     `json:"entity_type" gorm:"column:entity_type;type:varchar(50)"`

	// RecommendedAction is the exact payload handed to the executor when the
	// record clears review. The governance layer never interprets it.
	RecommendedAction []byte `json:"recommended_action" gorm:"column:recommended_action;type:jsonb"`

	// Display-only fields; never consulted by guardrail math.
	AIReasoning     string `json:"ai_reasoning" gorm:"column:ai_reasoning;type:text"`
	EstimatedImpact []byte `json:"estimated_impact" gorm:"column:estimated_impact;type:jsonb"`

	CreditCost decimal.Decimal `json:"credit_cost" gorm:"column:credit_cost;type:decimal(20,4);not null;default:0"`
	Priority   Priority        `json:"priority" gorm:"column:priority;type:varchar(20);not null;default:'medium'"`
	Status     ApprovalStatus  `json:"status" gorm:"column:status;type:varchar(20);not null;default:'pending';index"`

	// Set exactly once, atomically with the status transition.
	ReviewedAt       *time.Time `json:"reviewed_at" gorm:"column:reviewed_at;type:timestamptz"`
	ReviewedBy       *string    `json:"reviewed_by" gorm:"column:reviewed_by;type:varchar(255)"`
	ExecutedActionID *string    `json:"executed_action_id" gorm:"column:executed_action_id;type:varchar(255)"`

	// ExecutionError records an approved-but-not-executed outcome; the human
	// decision stands and execution is retried out-of-band.
	ExecutionError *string `json:"execution_error" gorm:"column:execution_error;type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (PendingApproval) TableName() string { return "pending_approvals" }

// ApprovalFilter narrows List queries.
type ApprovalFilter struct {
	Status     ApprovalStatus
	ActionType ActionType
	Limit      int
	Offset     int
}

// ProposalCandidate is what the proposal source submits for admission control.
type ProposalCandidate struct {
	ActionType      ActionType      `json:"action_type"`
	EntityID        string          `json:"entity_id"`
	EntityType      string          `json:"entity_type"`
	CreditCost      decimal.Decimal `json:"credit_cost"`
	Payload         json.RawMessage `json:"payload"`
	Reasoning       string          `json:"reasoning"`
	EstimatedImpact json.RawMessage `json:"estimated_impact"`
	Priority        Priority        `json:"priority"`
}

// Validate checks the candidate is structurally sound. Structural failures
// are the only case the guardrail evaluator denies outright.
func (c *ProposalCandidate) Validate() error {
	if !c.ActionType.Valid() {
		return &errors.ErrValidation{Field: "action_type", Message: "unknown action type"}
	}
	if len(c.Payload) == 0 {
		return &errors.ErrValidation{Field: "payload", Message: "missing recommended action payload"}
	}
	if c.CreditCost.IsNegative() {
		return &errors.ErrValidation{Field: "credit_cost", Message: "must not be negative"}
	}
	if c.Priority != "" && !c.Priority.Valid() {
		return &errors.ErrValidation{Field: "priority", Message: "unknown priority"}
	}
	return nil
}
