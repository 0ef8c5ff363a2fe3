package services

import (
	"time"

	"github.com/merchflow/autopilot/internal/models"
)

// Verdict is the admission-control outcome for a proposed action.
type Verdict string

const (
	// VerdictAllowAutonomous clears the action for immediate execution.
	VerdictAllowAutonomous Verdict = "allow_autonomous"

	// VerdictRequireApproval queues the action for human sign-off. Guardrail
	// breaches degrade here rather than to deny: queuing is always safe,
	// losing a legitimate optimization is not.
	VerdictRequireApproval Verdict = "require_approval"

	// VerdictDeny rejects a structurally invalid candidate outright.
	VerdictDeny Verdict = "deny"
)

// GuardrailDecision pairs a verdict with the rule that produced it.
type GuardrailDecision struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// EvaluateGuardrails is the pure admission-control function. Rules apply in
// order, first match wins:
//
//  1. structural validation failure -> deny
//  2. autopilot disabled            -> require approval (human mode)
//  3. customer-facing action inside quiet hours -> require approval
//  4. daily action count exhausted  -> require approval
//  5. daily credit budget exhausted -> require approval
//  6. otherwise                     -> allow autonomous
//
// Settings are fetched fresh by the caller on every evaluation; the clock is
// interpreted in the merchant's timezone.
func EvaluateGuardrails(settings *models.AutomationSettings, counters *models.DailyConsumption, candidate *models.ProposalCandidate, now time.Time) GuardrailDecision {
	if err := candidate.Validate(); err != nil {
		return GuardrailDecision{Verdict: VerdictDeny, Reason: err.Error()}
	}

	if !settings.GlobalAutopilotEnabled {
		return GuardrailDecision{Verdict: VerdictRequireApproval, Reason: "global autopilot is disabled"}
	}

	if candidate.ActionType.CustomerFacing() && settings.InQuietHours(now) {
		return GuardrailDecision{Verdict: VerdictRequireApproval, Reason: "customer-facing send inside quiet hours"}
	}

	if counters.ActionsExecuted+1 > settings.MaxDailyActions {
		return GuardrailDecision{Verdict: VerdictRequireApproval, Reason: "daily action limit reached"}
	}

	if counters.CreditsSpent.Add(candidate.CreditCost).GreaterThan(settings.AutonomousCreditLimit) {
		return GuardrailDecision{Verdict: VerdictRequireApproval, Reason: "daily credit budget exceeded"}
	}

	return GuardrailDecision{Verdict: VerdictAllowAutonomous, Reason: "within autonomous limits"}
}
