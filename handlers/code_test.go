// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/testutil"
)

func TestGenerateVoteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVoteCode()
		if err != nil {
			t.Fatalf("Failed to generate code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6-digit code, got %q", code)
		}
		if !ValidCodeFormat(code) {
			t.Fatalf("Generated code %q fails its own format check", code)
		}
		if code[0] == '0' {
			t.Fatalf("Generated code %q outside 100000-999999", code)
		}
		seen[code] = true
	}
	// 50 independent draws from 900000 values colliding every time would
	// mean a broken generator.
	if len(seen) < 2 {
		t.Error("Expected distinct codes across draws")
	}
}

func TestValidCodeFormat(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"123456", true},
		{"012345", true}, // leading zero accepted on input
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"123 456", false},
		{"", false},
		{"１２３４５６", false}, // non-ASCII digits
	}

	for _, tt := range tests {
		if got := ValidCodeFormat(tt.code); got != tt.valid {
			t.Errorf("ValidCodeFormat(%q): expected %v, got %v", tt.code, tt.valid, got)
		}
	}
}

func TestVerifyAccessCodeOnline(t *testing.T) {
	now := time.Now()
	valid := now.Add(5 * time.Minute)
	expired := now.Add(-time.Minute)
	code := "654321"

	ev := &models.VoteEvent{VotingMode: models.ModeOnline}

	tests := []struct {
		name      string
		code      *string
		expiresAt *time.Time
		submitted string
		expected  error
	}{
		{"correct code", &code, &valid, "654321", nil},
		{"malformed submission", &code, &valid, "abc123", ErrMalformedCode},
		{"too short", &code, &valid, "6543", ErrMalformedCode},
		{"no code requested", nil, nil, "654321", ErrNoCodeRequested},
		{"expired code", &code, &expired, "654321", ErrCodeExpired},
		{"wrong code", &code, &valid, "111111", ErrCodeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyAccessCode(ev, tt.code, tt.expiresAt, tt.submitted, now)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestVerifyAccessCodeOnCampus(t *testing.T) {
	now := time.Now()
	valid := now.Add(2 * time.Minute)
	expired := now.Add(-time.Second)
	code := "024680"

	tests := []struct {
		name      string
		code      *string
		expiresAt *time.Time
		submitted string
		expected  error
	}{
		{"correct code", &code, &valid, "024680", nil},
		{"no active code", nil, nil, "024680", ErrCodeNotActive},
		{"expired code", &code, &expired, "024680", ErrCodeExpired},
		{"wrong code", &code, &valid, "024681", ErrCodeMismatch},
		{"malformed submission", &code, &valid, "24680", ErrMalformedCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &models.VoteEvent{
				VotingMode:           models.ModeOnCampus,
				CurrentVoteCode:      tt.code,
				CurrentCodeExpiresAt: tt.expiresAt,
			}
			err := verifyAccessCode(ev, nil, nil, tt.submitted, now)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestRotateEventCode(t *testing.T) {
	db := testutil.SetupTestDB(t)

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnCampus, models.PhaseVoting)
	ev, err := fetchEvent(db, eventID)
	if err != nil {
		t.Fatalf("Failed to fetch event: %v", err)
	}

	now := time.Now()
	code, expiresAt, err := rotateEventCode(db, ev, now)
	if err != nil {
		t.Fatalf("Failed to rotate code: %v", err)
	}
	if !ValidCodeFormat(code) {
		t.Errorf("Rotated code %q not 6 digits", code)
	}

	wantExpiry := now.Add(models.DefaultCodeRotationMinutes * time.Minute)
	if !expiresAt.Equal(wantExpiry) {
		t.Errorf("Expected expiry %v, got %v", wantExpiry, expiresAt)
	}

	// Persisted?
	reloaded, err := fetchEvent(db, eventID)
	if err != nil {
		t.Fatalf("Failed to reload event: %v", err)
	}
	if reloaded.CurrentVoteCode == nil || *reloaded.CurrentVoteCode != code {
		t.Error("Rotated code was not persisted")
	}
}

func TestCurrentEventCodeLazyRotation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnCampus, models.PhaseVoting)
	now := time.Now()

	// No stored code yet: first read rotates.
	ev, _ := fetchEvent(db, eventID)
	first, _, err := currentEventCode(db, ev, now)
	if err != nil {
		t.Fatalf("Failed to read current code: %v", err)
	}
	if !ValidCodeFormat(first) {
		t.Fatalf("Expected a fresh code, got %q", first)
	}

	// Unexpired code: read returns it unchanged.
	ev, _ = fetchEvent(db, eventID)
	second, _, err := currentEventCode(db, ev, now)
	if err != nil {
		t.Fatalf("Failed to read current code: %v", err)
	}
	if second != first {
		t.Errorf("Unexpired code should be stable, got %q then %q", first, second)
	}

	// Expired code: read rotates again.
	testutil.SetEventCode(t, db, eventID, first, now.Add(-time.Second))
	ev, _ = fetchEvent(db, eventID)
	third, _, err := currentEventCode(db, ev, now)
	if err != nil {
		t.Fatalf("Failed to read current code: %v", err)
	}
	if third == first {
		t.Error("Expired code should have been replaced")
	}
}

func TestCurrentEventCodeOutsideVoting(t *testing.T) {
	db := testutil.SetupTestDB(t)

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnCampus, models.PhaseRegistration)
	ev, _ := fetchEvent(db, eventID)

	_, _, err := currentEventCode(db, ev, time.Now())
	if !errors.Is(err, ErrVotingNotActive) {
		t.Errorf("Expected ErrVotingNotActive, got %v", err)
	}
}

func TestReasonForCodeError(t *testing.T) {
	tests := []struct {
		err    error
		reason string
	}{
		{ErrMalformedCode, models.ReasonMalformedCode},
		{ErrNoCodeRequested, models.ReasonNoCodeRequested},
		{ErrCodeExpired, models.ReasonCodeExpired},
		{ErrCodeMismatch, models.ReasonCodeMismatch},
		{ErrCodeNotActive, models.ReasonCodeNotActive},
		{ErrVotingNotActive, models.ReasonVotingNotActive},
		{errors.New("other"), models.ReasonInternal},
	}

	for _, tt := range tests {
		if got := reasonForCodeError(tt.err); got != tt.reason {
			t.Errorf("reasonForCodeError(%v): expected %q, got %q", tt.err, tt.reason, got)
		}
	}
}
