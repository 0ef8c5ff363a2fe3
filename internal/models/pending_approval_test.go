package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestActionTypeValid(t *testing.T) {
	for _, at := range []ActionType{ActionOptimizeSEO, ActionSendCampaign, ActionSendCartRecovery, ActionAdjustPrice} {
		if !at.Valid() {
			t.Fatalf("expected %q to be valid", at)
		}
	}
	if ActionType("delete_store").Valid() {
		t.Fatalf("expected unknown action type to be invalid")
	}
	if ActionType("").Valid() {
		t.Fatalf("expected empty action type to be invalid")
	}
}

func TestActionTypeCustomerFacing(t *testing.T) {
	cases := map[ActionType]bool{
		ActionSendCampaign:     true,
		ActionSendCartRecovery: true,
		ActionOptimizeSEO:      false,
		ActionAdjustPrice:      false,
	}
	for at, want := range cases {
		if got := at.CustomerFacing(); got != want {
			t.Fatalf("CustomerFacing(%q) = %v, want %v", at, got, want)
		}
	}
}

func TestPriorityWeightOrdering(t *testing.T) {
	if !(PriorityUrgent.Weight() < PriorityHigh.Weight() &&
		PriorityHigh.Weight() < PriorityMedium.Weight() &&
		PriorityMedium.Weight() < PriorityLow.Weight()) {
		t.Fatalf("priority weights out of order")
	}
}

func TestProposalCandidateValidate(t *testing.T) {
	valid := ProposalCandidate{
		ActionType: ActionAdjustPrice,
		CreditCost: decimal.NewFromInt(5),
		Payload:    []byte(`{"product_id":"p1","new_price":"19.99"}`),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error for valid candidate: %v", err)
	}

	bad := valid
	bad.ActionType = "unknown_action"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown action type")
	}

	bad = valid
	bad.Payload = nil
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for missing payload")
	}

	bad = valid
	bad.CreditCost = decimal.NewFromInt(-1)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for negative credit cost")
	}

	bad = valid
	bad.Priority = "asap"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}
