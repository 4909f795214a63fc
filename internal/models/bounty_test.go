package models

import (
	"testing"
	"time"
)

func TestIsValidBountyTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{BountyStatusOpen, BountyStatusClaimed, true},
		{BountyStatusClaimed, BountyStatusCompleted, true},
		{BountyStatusCompleted, BountyStatusCompleted, true},

		// Disputes reopen
		{BountyStatusClaimed, BountyStatusOpen, true},
		{BountyStatusCompleted, BountyStatusOpen, true},
		{BountyStatusOpen, BountyStatusCompleted, true},

		// Expiry
		{BountyStatusOpen, BountyStatusExpired, true},

		// Invalid transitions
		{BountyStatusOpen, BountyStatusOpen, false},
		{BountyStatusExpired, BountyStatusOpen, false},
		{BountyStatusExpired, BountyStatusClaimed, false},
		{BountyStatusCompleted, BountyStatusClaimed, false},
		{"nonexistent", BountyStatusOpen, false},
		{BountyStatusOpen, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidBountyTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidBountyTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestIsValidClaimTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{ClaimStatusInProgress, ClaimStatusDelivered, true},
		{ClaimStatusDelivered, ClaimStatusApproved, true},
		{ClaimStatusInProgress, ClaimStatusExpired, true},
		{ClaimStatusDelivered, ClaimStatusExpired, true},
		{ClaimStatusExpired, ClaimStatusCanceled, true},
		{ClaimStatusExpired, ClaimStatusApproved, true},

		{ClaimStatusInProgress, ClaimStatusApproved, false},
		{ClaimStatusApproved, ClaimStatusDelivered, false},
		{ClaimStatusApproved, ClaimStatusExpired, false},
		{ClaimStatusCanceled, ClaimStatusInProgress, false},
		{ClaimStatusRejected, ClaimStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidClaimTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidClaimTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalClaimStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{ClaimStatusApproved, ClaimStatusRejected, ClaimStatusCanceled}
	for _, status := range terminal {
		if transitions := ValidClaimTransitions[status]; len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestIsValidPullRequestURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://github.com/a/b/pull/42", true},
		{"https://github.com/x/y/pull/9", true},
		{"http://github.com/a/b/pull/1", false},
		{"https://github.com/a/b/pulls/1", false},
		{"https://gitlab.com/a/b/pull/1", false},
		{"https://github.com/a/b/pull/", false},
		{"https://github.com/a/b/pull/1/files", false},
		{"https://github.com/a/pull/1", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidPullRequestURL(tt.url); got != tt.expected {
			t.Errorf("IsValidPullRequestURL(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	open := Bounty{Status: BountyStatusOpen, ExpiresAt: now.Add(-time.Minute)}
	if got := open.EffectiveStatus(now); got != BountyStatusExpired {
		t.Errorf("past-expiry open bounty: got %q, want %q", got, BountyStatusExpired)
	}

	open.ExpiresAt = now.Add(time.Hour)
	if got := open.EffectiveStatus(now); got != BountyStatusOpen {
		t.Errorf("open bounty: got %q, want %q", got, BountyStatusOpen)
	}

	claimed := Bounty{Status: BountyStatusClaimed, ExpiresAt: now.Add(-time.Hour)}
	if got := claimed.EffectiveStatus(now); got != BountyStatusClaimed {
		t.Errorf("claimed bounty must not read as expired, got %q", got)
	}
}

func TestDibsDuration(t *testing.T) {
	week := 7 * 24 * time.Hour
	b := Bounty{}
	if got := b.DibsDuration(week); got != week {
		t.Errorf("unset dibs duration: got %v, want %v", got, week)
	}
	b.DibsDurationSeconds = 3600
	if got := b.DibsDuration(week); got != time.Hour {
		t.Errorf("dibs duration: got %v, want 1h", got)
	}
}

func TestResolutionEffects(t *testing.T) {
	tests := []struct {
		outcome       string
		bountyStatus  string
		claimStatus   string
		paymentStatus string
		pays          bool
		payout        int64
	}{
		{OutcomeClient, BountyStatusOpen, ClaimStatusCanceled, PaymentStatusCanceled, false, 0},
		{OutcomeDeveloper, BountyStatusCompleted, ClaimStatusApproved, PaymentStatusReady, true, 1000},
		{OutcomeSplit, BountyStatusCompleted, ClaimStatusApproved, PaymentStatusPartial, true, 500},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			e, ok := EffectOf(tt.outcome)
			if !ok {
				t.Fatalf("no effect for outcome %q", tt.outcome)
			}
			if e.BountyStatus != tt.bountyStatus || e.ClaimStatus != tt.claimStatus ||
				e.PaymentStatus != tt.paymentStatus || e.CreatePayment != tt.pays {
				t.Errorf("unexpected effect %+v", e)
			}
			if got := PayoutAmount(tt.outcome, 1000); got != tt.payout {
				t.Errorf("PayoutAmount(%q, 1000) = %d, want %d", tt.outcome, got, tt.payout)
			}
		})
	}

	if _, ok := EffectOf("nobody"); ok {
		t.Error("unknown outcome must have no effect")
	}
	if got := PayoutAmount(OutcomeSplit, 1001); got != 500 {
		t.Errorf("odd split should round down, got %d", got)
	}
}
