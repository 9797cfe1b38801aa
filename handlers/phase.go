// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"time"

	"github.com/Rahad0Islam/e-votehub/models"
)

// ResolvePhase derives an event's lifecycle phase from its configured times.
// Pure function of (event times, now); the phase is never stored, so edits
// to the times are reflected on the very next call.
//
// Boundaries: voting is inclusive on both ends - a vote exactly at
// vote_start_time or vote_end_time is accepted.
func ResolvePhase(ev *models.VoteEvent, now time.Time) string {
	return resolvePhase(ev.RegEndTime, ev.VoteStartTime, ev.VoteEndTime, now)
}

func resolvePhase(regEnd, voteStart, voteEnd, now time.Time) string {
	// A missing timestamp must read as closed, never as open.
	if regEnd.IsZero() || voteStart.IsZero() || voteEnd.IsZero() {
		return models.PhaseFinished
	}

	switch {
	case now.Before(regEnd):
		return models.PhaseRegistration
	case now.Before(voteStart):
		return models.PhaseWaiting
	case !now.After(voteEnd):
		return models.PhaseVoting
	default:
		return models.PhaseFinished
	}
}

// validEventTimes checks the creation/update invariant
// reg_end <= vote_start < vote_end.
func validEventTimes(regEnd, voteStart, voteEnd time.Time) bool {
	if regEnd.IsZero() || voteStart.IsZero() || voteEnd.IsZero() {
		return false
	}
	return !regEnd.After(voteStart) && voteStart.Before(voteEnd)
}
