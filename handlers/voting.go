// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rahad0Islam/e-votehub/auth"
	"github.com/Rahad0Islam/e-votehub/mailer"
	"github.com/Rahad0Islam/e-votehub/middleware"
	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/notify"
)

type VotingHandler struct {
	db   *sql.DB
	hub  *notify.Hub
	mail mailer.Mailer
}

func NewVotingHandler(db *sql.DB, hub *notify.Hub, mail mailer.Mailer) *VotingHandler {
	return &VotingHandler{db: db, hub: hub, mail: mail}
}

// CastVote handles POST /events/{id}/votes
//
// Validation is fail-fast in a fixed order: registration, ballot shape,
// event, access code, has-voted, nominee eligibility, phase. Nothing is
// written until every check passes; the tally update and the has_voted
// flip then commit in one transaction, with the conditional has_voted
// update serving as the single-vote gate under concurrency.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	id, err := auth.CallerIdentity(r)
	if err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "caller identity required")
		return
	}

	eventID := r.PathValue("id")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// 1. Voter must hold a registration for this event.
	var regID string
	var hasVoted bool
	var emailCode sql.NullString
	var emailCodeExpires sql.NullTime
	err = h.db.QueryRow(`
		SELECT id, has_voted, email_code, email_code_expires_at
		FROM voter_reg
		WHERE event_id = $1 AND user_id = $2
	`, eventID, id.UserID).Scan(&regID, &hasVoted, &emailCode, &emailCodeExpires)
	if err == sql.ErrNoRows {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonNotRegistered, "You are not registered to vote for this event")
		return
	}
	if err != nil {
		slog.Error("failed to query voter registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// 2. Ballot shape.
	if len(req.SelectedNominees) == 0 {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonInvalidBallotShape, "Please select at least one nominee before submitting your vote")
		return
	}
	if req.ElectionType == models.TypeSingle && len(req.SelectedNominees) != 1 {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonInvalidBallotShape, "Please select exactly one nominee for a Single vote")
		return
	}

	// 3. Event must exist.
	ev, err := fetchEvent(h.db, eventID)
	if err != nil {
		respondEventLookup(w, err)
		return
	}

	now := time.Now()

	// 4. Access code per voting mode.
	var regEmailCode *string
	var regEmailCodeExpires *time.Time
	if emailCode.Valid {
		regEmailCode = &emailCode.String
	}
	if emailCodeExpires.Valid {
		t := emailCodeExpires.Time
		regEmailCodeExpires = &t
	}
	if err := verifyAccessCode(ev, regEmailCode, regEmailCodeExpires, req.Code, now); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, ErrMalformedCode) {
			status = http.StatusBadRequest
		}
		middleware.RejectResponse(w, status, reasonForCodeError(err), err.Error())
		return
	}

	// 5. One vote per voter (pre-check; the transactional gate is below).
	if hasVoted {
		middleware.RejectResponse(w, http.StatusConflict, models.ReasonAlreadyVoted, "You have already voted in this event")
		return
	}

	// 6. Every selected nominee must be approved.
	approved, err := approvedNomineeIDs(h.db, eventID)
	if err != nil {
		slog.Error("failed to query approved nominees", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	approvedSet := make(map[string]bool, len(approved))
	for _, nid := range approved {
		approvedSet[nid] = true
	}
	for _, sel := range req.SelectedNominees {
		if !approvedSet[sel.NomineeID] {
			middleware.RejectResponse(w, http.StatusConflict, models.ReasonNomineeNotEligible, "Nominee "+sel.NomineeID+" is not valid for this event")
			return
		}
	}

	// 7. Voting window, inclusive on both ends.
	if ResolvePhase(ev, now) != models.PhaseVoting {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonVotingNotOpen, "Voting is not currently open")
		return
	}

	// 8+9. Flip has_voted and fold the ballot into the tally atomically.
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// false -> true exactly once; the losing concurrent request stops here
	// with its tally writes rolled back.
	res, err := tx.Exec(`
		UPDATE voter_reg SET has_voted = TRUE
		WHERE id = $1 AND has_voted = FALSE
	`, regID)
	if err != nil {
		slog.Error("failed to mark voter as voted", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		middleware.RejectResponse(w, http.StatusConflict, models.ReasonAlreadyVoted, "You have already voted in this event")
		return
	}

	universe := len(approved)
	if req.ElectionType == models.TypeRank {
		universe, err = rankUniverse(tx, eventID, len(approved))
		if err != nil {
			slog.Error("failed to resolve rank universe", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
			return
		}
	}

	if err := ApplyVote(tx, eventID, req.ElectionType, req.SelectedNominees, approved, universe); err != nil {
		if errors.Is(err, ErrUnknownElectionType) {
			middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonUnknownElectionType, "Unknown election type")
			return
		}
		slog.Error("failed to apply vote", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit vote", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("vote recorded", "event_id", eventID, "election_type", req.ElectionType)

	// 10. Best-effort room broadcast; never affects the committed vote.
	h.hub.Publish(eventID, notify.Event{Type: notify.TypeVoteUpdate, EventID: eventID})

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Tallied: true,
		Message: "You successfully voted!",
	})
}

// rankUniverse returns the approved-nominee count N used for Rank scoring,
// snapshotted at the first Rank vote so every ballot in the window scores
// against the same N even if nominees are approved mid-vote.
func rankUniverse(tx *sql.Tx, eventID string, current int) (int, error) {
	_, err := tx.Exec(`
		UPDATE vote_event SET rank_universe_size = $1
		WHERE id = $2 AND rank_universe_size IS NULL
	`, current, eventID)
	if err != nil {
		return 0, err
	}

	var n sql.NullInt64
	if err := tx.QueryRow(`
		SELECT rank_universe_size FROM vote_event WHERE id = $1
	`, eventID).Scan(&n); err != nil {
		return 0, err
	}
	if n.Valid && n.Int64 > 0 {
		return int(n.Int64), nil
	}
	return current, nil
}

// SendVoteCode handles POST /events/{id}/vote-code
// Issues the caller's one-time code for an online event. Delivery failure
// is a hard error: without the email the voter has no path to a code.
func (h *VotingHandler) SendVoteCode(w http.ResponseWriter, r *http.Request) {
	id, err := auth.CallerIdentity(r)
	if err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "caller identity required")
		return
	}

	eventID := r.PathValue("id")

	ev, err := fetchEvent(h.db, eventID)
	if err != nil {
		respondEventLookup(w, err)
		return
	}
	if ev.VotingMode != models.ModeOnline {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "This event uses the rotating on-campus code")
		return
	}

	var regID string
	err = h.db.QueryRow(`
		SELECT id FROM voter_reg WHERE event_id = $1 AND user_id = $2
	`, eventID, id.UserID).Scan(&regID)
	if err == sql.ErrNoRows {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonNotRegistered, "You are not registered to vote for this event")
		return
	}
	if err != nil {
		slog.Error("failed to query voter registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	code, err := GenerateVoteCode()
	if err != nil {
		slog.Error("failed to generate vote code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue code")
		return
	}
	expiresAt := time.Now().Add(models.EmailCodeTTL)

	_, err = h.db.Exec(`
		UPDATE voter_reg SET email_code = $1, email_code_expires_at = $2
		WHERE id = $3
	`, code, expiresAt, regID)
	if err != nil {
		slog.Error("failed to store vote code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue code")
		return
	}

	if err := h.mail.SendVoteCode(id.UserID, ev.Title, code); err != nil {
		slog.Error("failed to deliver vote code", "error", err, "event_id", eventID)
		middleware.RejectResponse(w, http.StatusBadGateway, models.ReasonCodeDeliveryFailed, "Could not deliver your voting code, please try again")
		return
	}

	slog.Info("vote code issued", "event_id", eventID)

	middleware.JSONResponse(w, http.StatusCreated, models.SendVoteCodeResponse{ExpiresAt: expiresAt})
}

// RotateCode handles POST /events/{id}/code/rotate (admin)
func (h *VotingHandler) RotateCode(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r); err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	eventID := r.PathValue("id")

	ev, err := fetchEvent(h.db, eventID)
	if err != nil {
		respondEventLookup(w, err)
		return
	}
	if ev.VotingMode != models.ModeOnCampus {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "This event uses per-voter email codes")
		return
	}

	now := time.Now()
	if ResolvePhase(ev, now) != models.PhaseVoting {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonVotingNotActive, "Codes rotate only while voting is active")
		return
	}

	code, expiresAt, err := rotateEventCode(h.db, ev, now)
	if err != nil {
		slog.Error("failed to rotate code", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to rotate code")
		return
	}

	slog.Info("on-campus code rotated", "event_id", eventID, "expires_at", expiresAt)

	// The code itself stays off the wire; on-campus voters get it in the
	// room, subscribers only learn that it changed.
	h.hub.Publish(eventID, notify.Event{
		Type:    notify.TypeCodeRotated,
		EventID: eventID,
		Payload: map[string]time.Time{"expires_at": expiresAt},
	})

	middleware.JSONResponse(w, http.StatusOK, models.CurrentCodeResponse{Code: code, ExpiresAt: expiresAt})
}

// CurrentCode handles GET /events/{id}/code (admin)
// Lazily rotates first when the stored code is absent or expired, so
// polling alone keeps the displayed code fresh.
func (h *VotingHandler) CurrentCode(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r); err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	eventID := r.PathValue("id")

	ev, err := fetchEvent(h.db, eventID)
	if err != nil {
		respondEventLookup(w, err)
		return
	}
	if ev.VotingMode != models.ModeOnCampus {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "This event uses per-voter email codes")
		return
	}

	code, expiresAt, err := currentEventCode(h.db, ev, time.Now())
	if err != nil {
		if errors.Is(err, ErrVotingNotActive) {
			middleware.RejectResponse(w, http.StatusForbidden, models.ReasonVotingNotActive, "No code outside the voting window")
			return
		}
		slog.Error("failed to read current code", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read code")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CurrentCodeResponse{Code: code, ExpiresAt: expiresAt})
}
