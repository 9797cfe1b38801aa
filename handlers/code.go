// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/Rahad0Islam/e-votehub/models"
)

// Access-code failure modes. Each maps to a distinct rejection reason so a
// client can tell "request a new code" apart from "re-type the code".
var (
	ErrMalformedCode   = errors.New("code must be exactly 6 digits")
	ErrNoCodeRequested = errors.New("no code has been requested")
	ErrCodeExpired     = errors.New("code has expired")
	ErrCodeMismatch    = errors.New("code does not match")
	ErrCodeNotActive   = errors.New("no active code for this event")
	ErrVotingNotActive = errors.New("voting is not currently active")
)

// Codes are exactly 6 ASCII digits. A leading zero is valid on input even
// though generation stays in 100000-999999.
var voteCodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// GenerateVoteCode draws a fresh 6-digit code uniformly from 100000-999999.
// Each draw is independent; no reuse avoidance.
func GenerateVoteCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate vote code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ValidCodeFormat reports whether a submitted code has the 6-digit shape.
func ValidCodeFormat(code string) bool {
	return voteCodeRe.MatchString(code)
}

func codesEqual(a, b string) bool {
	// Constant-time compare; codes are short-lived shared secrets.
	return hmac.Equal([]byte(a), []byte(b))
}

// verifyAccessCode validates a submitted code against the scheme the
// event's voting mode prescribes: the voter's emailed one-time code for
// online events, the shared rotating code for on-campus events.
func verifyAccessCode(ev *models.VoteEvent, emailCode *string, emailCodeExpiresAt *time.Time, submitted string, now time.Time) error {
	if !ValidCodeFormat(submitted) {
		return ErrMalformedCode
	}

	switch ev.VotingMode {
	case models.ModeOnline:
		if emailCode == nil || *emailCode == "" {
			return ErrNoCodeRequested
		}
		if emailCodeExpiresAt == nil || now.After(*emailCodeExpiresAt) {
			return ErrCodeExpired
		}
		if !codesEqual(submitted, *emailCode) {
			return ErrCodeMismatch
		}
		return nil

	case models.ModeOnCampus:
		if ev.CurrentVoteCode == nil || *ev.CurrentVoteCode == "" {
			return ErrCodeNotActive
		}
		if ev.CurrentCodeExpiresAt == nil || now.After(*ev.CurrentCodeExpiresAt) {
			return ErrCodeExpired
		}
		if !codesEqual(submitted, *ev.CurrentVoteCode) {
			return ErrCodeMismatch
		}
		return nil

	default:
		return ErrCodeNotActive
	}
}

// rotateEventCode generates and persists a fresh rotating code for an
// on-campus event, valid for the event's rotation interval. Callers must
// have already checked that the voting phase is active.
func rotateEventCode(db *sql.DB, ev *models.VoteEvent, now time.Time) (string, time.Time, error) {
	code, err := GenerateVoteCode()
	if err != nil {
		return "", time.Time{}, err
	}

	minutes := ev.CodeRotationMinutes
	if minutes <= 0 {
		minutes = models.DefaultCodeRotationMinutes
	}
	expiresAt := now.Add(time.Duration(minutes) * time.Minute)

	// Last-writer-wins is fine here: a lost rotation only delays code
	// visibility, it never admits a stale code past its expiry check.
	_, err = db.Exec(`
		UPDATE vote_event
		SET current_vote_code = $1, current_code_expires_at = $2
		WHERE id = $3
	`, code, expiresAt, ev.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store rotated code: %w", err)
	}

	ev.CurrentVoteCode = &code
	ev.CurrentCodeExpiresAt = &expiresAt
	return code, expiresAt, nil
}

// currentEventCode returns the event's active rotating code, lazily
// rotating first if the stored one is absent or expired. Rotation is
// pull-based - polling this keeps the code fresh without a scheduler - so
// an expired code may linger between its expiry instant and the next read.
func currentEventCode(db *sql.DB, ev *models.VoteEvent, now time.Time) (string, time.Time, error) {
	if ResolvePhase(ev, now) != models.PhaseVoting {
		return "", time.Time{}, ErrVotingNotActive
	}

	if ev.CurrentVoteCode != nil && *ev.CurrentVoteCode != "" &&
		ev.CurrentCodeExpiresAt != nil && now.Before(*ev.CurrentCodeExpiresAt) {
		return *ev.CurrentVoteCode, *ev.CurrentCodeExpiresAt, nil
	}

	return rotateEventCode(db, ev, now)
}

// reasonForCodeError maps an access-code failure to its rejection reason.
func reasonForCodeError(err error) string {
	switch {
	case errors.Is(err, ErrMalformedCode):
		return models.ReasonMalformedCode
	case errors.Is(err, ErrNoCodeRequested):
		return models.ReasonNoCodeRequested
	case errors.Is(err, ErrCodeExpired):
		return models.ReasonCodeExpired
	case errors.Is(err, ErrCodeMismatch):
		return models.ReasonCodeMismatch
	case errors.Is(err, ErrCodeNotActive):
		return models.ReasonCodeNotActive
	case errors.Is(err, ErrVotingNotActive):
		return models.ReasonVotingNotActive
	default:
		return models.ReasonInternal
	}
}
