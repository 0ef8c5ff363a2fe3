package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchflow/autopilot/internal/models"
)

func guardrailSettings() *models.AutomationSettings {
	s := models.DefaultAutomationSettings("u1")
	s.GlobalAutopilotEnabled = true
	s.AutonomousCreditLimit = decimal.NewFromInt(100)
	s.MaxDailyActions = 20
	s.QuietHoursStart = 21 * 60
	s.QuietHoursEnd = 9 * 60
	s.Timezone = "UTC"
	return s
}

func candidate(at models.ActionType, cost int64) *models.ProposalCandidate {
	return &models.ProposalCandidate{
		ActionType: at,
		CreditCost: decimal.NewFromInt(cost),
		Payload:    []byte(`{"k":"v"}`),
	}
}

func counters(credits int64, actions int) *models.DailyConsumption {
	return &models.DailyConsumption{
		UserID:          "u1",
		Day:             "2026-03-10",
		CreditsSpent:    decimal.NewFromInt(credits),
		ActionsExecuted: actions,
	}
}

// daytime is well outside the default 21:00-09:00 quiet window.
var daytime = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func TestEvaluateGuardrailsOrderedRules(t *testing.T) {
	tests := []struct {
		name     string
		settings func() *models.AutomationSettings
		counters *models.DailyConsumption
		cand     *models.ProposalCandidate
		now      time.Time
		want     Verdict
	}{
		{
			name:     "credit budget exceeded",
			settings: guardrailSettings,
			counters: counters(95, 3),
			cand:     candidate(models.ActionAdjustPrice, 10),
			now:      daytime,
			want:     VerdictRequireApproval,
		},
		{
			name:     "within credit budget",
			settings: guardrailSettings,
			counters: counters(95, 3),
			cand:     candidate(models.ActionAdjustPrice, 5),
			now:      daytime,
			want:     VerdictAllowAutonomous,
		},
		{
			name: "autopilot disabled overrides headroom",
			settings: func() *models.AutomationSettings {
				s := guardrailSettings()
				s.GlobalAutopilotEnabled = false
				return s
			},
			counters: counters(0, 0),
			cand:     candidate(models.ActionAdjustPrice, 10),
			now:      daytime,
			want:     VerdictRequireApproval,
		},
		{
			name:     "action count exhausted",
			settings: guardrailSettings,
			counters: counters(0, 20),
			cand:     candidate(models.ActionOptimizeSEO, 1),
			now:      daytime,
			want:     VerdictRequireApproval,
		},
		{
			name:     "last action slot still allowed",
			settings: guardrailSettings,
			counters: counters(0, 19),
			cand:     candidate(models.ActionOptimizeSEO, 1),
			now:      daytime,
			want:     VerdictAllowAutonomous,
		},
		{
			name:     "campaign inside quiet hours queued despite full budget",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand:     candidate(models.ActionSendCampaign, 1),
			now:      time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC),
			want:     VerdictRequireApproval,
		},
		{
			name:     "cart recovery inside quiet hours queued",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand:     candidate(models.ActionSendCartRecovery, 1),
			now:      time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC),
			want:     VerdictRequireApproval,
		},
		{
			name:     "price change unaffected by quiet hours",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand:     candidate(models.ActionAdjustPrice, 1),
			now:      time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC),
			want:     VerdictAllowAutonomous,
		},
		{
			name:     "campaign outside quiet hours allowed",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand:     candidate(models.ActionSendCampaign, 1),
			now:      daytime,
			want:     VerdictAllowAutonomous,
		},
		{
			name:     "unknown action type denied",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand: &models.ProposalCandidate{
				ActionType: "launch_rocket",
				CreditCost: decimal.NewFromInt(1),
				Payload:    []byte(`{}`),
			},
			now:  daytime,
			want: VerdictDeny,
		},
		{
			name:     "missing payload denied",
			settings: guardrailSettings,
			counters: counters(0, 0),
			cand: &models.ProposalCandidate{
				ActionType: models.ActionAdjustPrice,
				CreditCost: decimal.NewFromInt(1),
			},
			now:  daytime,
			want: VerdictDeny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateGuardrails(tt.settings(), tt.counters, tt.cand, tt.now)
			if got.Verdict != tt.want {
				t.Fatalf("verdict = %s (%s), want %s", got.Verdict, got.Reason, tt.want)
			}
		})
	}
}

// Guardrail monotonicity: a candidate blocked only by the credit check flips
// to autonomous when its cost drops below the remaining budget.
func TestEvaluateGuardrailsCreditMonotonicity(t *testing.T) {
	settings := guardrailSettings()
	cons := counters(95, 3)

	blocked := EvaluateGuardrails(settings, cons, candidate(models.ActionAdjustPrice, 10), daytime)
	if blocked.Verdict != VerdictRequireApproval {
		t.Fatalf("expected require_approval at cost 10, got %s", blocked.Verdict)
	}
	for cost := int64(5); cost >= 0; cost-- {
		got := EvaluateGuardrails(settings, cons, candidate(models.ActionAdjustPrice, cost), daytime)
		if got.Verdict != VerdictAllowAutonomous {
			t.Fatalf("expected allow_autonomous at cost %d, got %s (%s)", cost, got.Verdict, got.Reason)
		}
	}
}

func TestEvaluateGuardrailsQuietHoursNeverDeny(t *testing.T) {
	settings := guardrailSettings()
	for hour := 0; hour < 24; hour++ {
		now := time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
		got := EvaluateGuardrails(settings, counters(0, 0), candidate(models.ActionSendCampaign, 1), now)
		if got.Verdict == VerdictDeny {
			t.Fatalf("quiet hours must never deny, got deny at %02d:30", hour)
		}
		inWindow := settings.InQuietHours(now)
		if inWindow && got.Verdict != VerdictRequireApproval {
			t.Fatalf("expected require_approval inside quiet hours at %02d:30, got %s", hour, got.Verdict)
		}
		if !inWindow && got.Verdict != VerdictAllowAutonomous {
			t.Fatalf("expected allow_autonomous outside quiet hours at %02d:30, got %s", hour, got.Verdict)
		}
	}
}
