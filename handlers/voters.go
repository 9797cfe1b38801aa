// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rahad0Islam/e-votehub/auth"
	"github.com/Rahad0Islam/e-votehub/directory"
	"github.com/Rahad0Islam/e-votehub/middleware"
	"github.com/Rahad0Islam/e-votehub/models"
)

type VoterHandler struct {
	db    *sql.DB
	users directory.Directory
}

func NewVoterHandler(db *sql.DB, users directory.Directory) *VoterHandler {
	return &VoterHandler{db: db, users: users}
}

// Register handles POST /events/{id}/voters
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	if ResolvePhase(ev, time.Now()) != models.PhaseRegistration {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonRegistrationClosed, "Registration period has ended")
		return
	}

	regID := auth.NewID()
	_, err = h.db.Exec(`
		INSERT INTO voter_reg (id, event_id, user_id, has_voted, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, regID, eventID, id.UserID, time.Now())
	if err != nil {
		// UNIQUE (event_id, user_id) keeps this to one row per voter.
		if isUniqueViolation(err) {
			middleware.RejectResponse(w, http.StatusConflict, models.ReasonAlreadyRegistered, "You are already registered to vote for this event")
			return
		}
		slog.Error("failed to insert voter registration", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	slog.Info("voter registered", "event_id", eventID, "user_id", id.UserID)

	middleware.JSONResponse(w, http.StatusCreated, models.VoterRegisterResponse{VoterRegID: regID})
}

// List handles GET /events/{id}/voters
func (h *VoterHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	voters, err := h.eventVoters(eventID)
	if err != nil {
		slog.Error("failed to query voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, voters)
}

// Participation handles GET /events/{id}/participation
// Splits registered voters into voted / not-voted and reports turnout.
func (h *VoterHandler) Participation(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	voters, err := h.eventVoters(eventID)
	if err != nil {
		slog.Error("failed to query voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.ParticipationResponse{
		Voted:    []models.VoterInfo{},
		NotVoted: []models.VoterInfo{},
	}
	for _, v := range voters {
		if v.HasVoted {
			resp.Voted = append(resp.Voted, v)
		} else {
			resp.NotVoted = append(resp.NotVoted, v)
		}
	}
	if len(voters) > 0 {
		resp.Turnout = float64(len(resp.Voted)) / float64(len(voters)) * 100
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// MyStatus handles GET /events/{id}/my-status
// Reports the caller's voter and nominee registration state for the event.
func (h *VoterHandler) MyStatus(w http.ResponseWriter, r *http.Request) {
	id, err := auth.CallerIdentity(r)
	if err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "caller identity required")
		return
	}

	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	var resp models.MyStatusResponse

	var hasVoted bool
	err = h.db.QueryRow(`
		SELECT has_voted FROM voter_reg WHERE event_id = $1 AND user_id = $2
	`, eventID, id.UserID).Scan(&hasVoted)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		slog.Error("failed to query voter registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	default:
		resp.Registered = true
		resp.HasVoted = hasVoted
	}

	var approved bool
	err = h.db.QueryRow(`
		SELECT approved FROM nominee_reg WHERE event_id = $1 AND user_id = $2
	`, eventID, id.UserID).Scan(&approved)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		slog.Error("failed to query nominee registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	default:
		resp.NomineeRegistered = true
		resp.NomineeApproved = approved
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *VoterHandler) eventVoters(eventID string) ([]models.VoterInfo, error) {
	rows, err := h.db.Query(`
		SELECT user_id, has_voted FROM voter_reg
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := []models.VoterInfo{}
	ids := []string{}
	for rows.Next() {
		var v models.VoterInfo
		if err := rows.Scan(&v.UserID, &v.HasVoted); err != nil {
			return nil, err
		}
		voters = append(voters, v)
		ids = append(ids, v.UserID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := directory.Resolve(h.users, ids)
	for i := range voters {
		voters[i].DisplayName = names[voters[i].UserID]
	}

	return voters, nil
}
