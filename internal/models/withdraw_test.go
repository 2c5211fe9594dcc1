package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{WithdrawStatusPending, WithdrawStatusApproved, true},
		{WithdrawStatusApproved, WithdrawStatusCompleted, true},

		// Rejection
		{WithdrawStatusPending, WithdrawStatusRejected, true},

		// Invalid transitions
		{WithdrawStatusPending, WithdrawStatusCompleted, false},
		{WithdrawStatusPending, WithdrawStatusPending, false},
		{WithdrawStatusApproved, WithdrawStatusRejected, false},
		{WithdrawStatusApproved, WithdrawStatusPending, false},
		{WithdrawStatusRejected, WithdrawStatusApproved, false},
		{WithdrawStatusRejected, WithdrawStatusCompleted, false},
		{WithdrawStatusCompleted, WithdrawStatusRejected, false},
		{WithdrawStatusCompleted, WithdrawStatusPending, false},
		{"nonexistent", WithdrawStatusApproved, false},
		{WithdrawStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	terminal := []string{WithdrawStatusRejected, WithdrawStatusCompleted}
	for _, s := range terminal {
		if len(ValidWithdrawTransitions[s]) != 0 {
			t.Errorf("terminal state %q should have no transitions, got %v", s, ValidWithdrawTransitions[s])
		}
	}
}

func TestAllStatesInTransitionMap(t *testing.T) {
	all := []string{
		WithdrawStatusPending, WithdrawStatusApproved,
		WithdrawStatusRejected, WithdrawStatusCompleted,
	}
	for _, s := range all {
		if !IsValidWithdrawStatus(s) {
			t.Errorf("state %q missing from ValidWithdrawTransitions", s)
		}
	}
	if IsValidWithdrawStatus("cancelled") {
		t.Error("unknown state should not be valid")
	}
}

func TestIsValidPayoutMethod(t *testing.T) {
	for _, m := range []string{PayoutMethodPayPal, PayoutMethodBank, PayoutMethodCrypto} {
		if !IsValidPayoutMethod(m) {
			t.Errorf("method %q should be valid", m)
		}
	}
	if IsValidPayoutMethod("cash") {
		t.Error("cash should not be a valid payout method")
	}
}
