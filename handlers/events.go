// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Rahad0Islam/e-votehub/auth"
	"github.com/Rahad0Islam/e-votehub/middleware"
	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/notify"
)

type EventHandler struct {
	db  *sql.DB
	hub *notify.Hub
}

func NewEventHandler(db *sql.DB, hub *notify.Hub) *EventHandler {
	return &EventHandler{db: db, hub: hub}
}

// CreateEvent handles POST /events (admin)
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireAdmin(r)
	if err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "title is required")
		return
	}
	if req.ElectionType != models.TypeSingle && req.ElectionType != models.TypeMultiVote && req.ElectionType != models.TypeRank {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonUnknownElectionType, "election_type must be Single, MultiVote or Rank")
		return
	}
	if req.VotingMode != models.ModeOnline && req.VotingMode != models.ModeOnCampus {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "voting_mode must be online or onCampus")
		return
	}
	if !validEventTimes(req.RegEndTime, req.VoteStartTime, req.VoteEndTime) {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonInvalidTimes, "times must satisfy reg_end <= vote_start < vote_end")
		return
	}
	if len(req.BallotImages) == 0 {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "at least one ballot image is required")
		return
	}
	for _, img := range req.BallotImages {
		if img.URL == "" || img.PublicID == "" {
			middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "ballot images need url and public_id")
			return
		}
	}

	rotation := req.CodeRotationMinutes
	if rotation <= 0 {
		rotation = models.DefaultCodeRotationMinutes
	}

	eventID := auth.NewID()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var place *string
	if req.Place != "" {
		place = &req.Place
	}

	_, err = tx.Exec(`
		INSERT INTO vote_event (id, title, description, election_type, voting_mode,
			reg_end_time, vote_start_time, vote_end_time, code_rotation_minutes, place, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, eventID, req.Title, req.Description, req.ElectionType, req.VotingMode,
		req.RegEndTime, req.VoteStartTime, req.VoteEndTime, rotation, place, id.UserID, time.Now())
	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	for _, img := range req.BallotImages {
		_, err = tx.Exec(`
			INSERT INTO ballot_image (event_id, public_id, url, used)
			VALUES ($1, $2, $3, FALSE)
			ON CONFLICT (event_id, public_id) DO NOTHING
		`, eventID, img.PublicID, img.URL)
		if err != nil {
			slog.Error("failed to insert ballot image", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "election_type", req.ElectionType, "voting_mode", req.VotingMode)

	h.hub.Broadcast(notify.Event{Type: notify.TypeEventCreated, EventID: eventID, Payload: map[string]string{"title": req.Title}})

	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{EventID: eventID})
}

// ListEvents handles GET /events
// Each event carries its derived phase; ?status= filters on it.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")

	rows, err := h.db.Query(`
		SELECT id, title, description, election_type, voting_mode,
		       reg_end_time, vote_start_time, vote_end_time,
		       code_rotation_minutes, place, created_by, created_at
		FROM vote_event
		ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now()
	events := []models.VoteEvent{}
	for rows.Next() {
		var ev models.VoteEvent
		var description sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Title, &description, &ev.ElectionType, &ev.VotingMode,
			&ev.RegEndTime, &ev.VoteStartTime, &ev.VoteEndTime,
			&ev.CodeRotationMinutes, &ev.Place, &ev.CreatedBy, &ev.CreatedAt); err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		ev.Description = description.String
		ev.Phase = ResolvePhase(&ev, now)
		ev.EndsIn = phaseDeadlineLabel(&ev, ev.Phase)

		if statusFilter == "" || ev.Phase == statusFilter {
			events = append(events, ev)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

// phaseDeadlineLabel renders a human label for the phase's next boundary,
// e.g. "2 hours from now".
func phaseDeadlineLabel(ev *models.VoteEvent, phase string) string {
	switch phase {
	case models.PhaseRegistration:
		return humanize.Time(ev.RegEndTime)
	case models.PhaseWaiting:
		return humanize.Time(ev.VoteStartTime)
	case models.PhaseVoting:
		return humanize.Time(ev.VoteEndTime)
	default:
		return ""
	}
}

// UpdateEventTimes handles PUT /events/{id}/times (admin)
// Times may change mid-flight; the next phase check simply reflects the
// new window.
func (h *EventHandler) UpdateEventTimes(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r); err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	var req models.UpdateEventTimesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !validEventTimes(req.RegEndTime, req.VoteStartTime, req.VoteEndTime) {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonInvalidTimes, "times must satisfy reg_end <= vote_start < vote_end")
		return
	}

	res, err := h.db.Exec(`
		UPDATE vote_event
		SET reg_end_time = $1, vote_start_time = $2, vote_end_time = $3
		WHERE id = $4
	`, req.RegEndTime, req.VoteStartTime, req.VoteEndTime, eventID)
	if err != nil {
		slog.Error("failed to update event times", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.RejectResponse(w, http.StatusNotFound, models.ReasonEventNotFound, "Event not found")
		return
	}

	slog.Info("event times updated", "event_id", eventID)

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// AddBallotImages handles POST /events/{id}/ballot-images (admin)
func (h *EventHandler) AddBallotImages(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r); err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	eventID := r.PathValue("id")

	var req models.AddBallotImagesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.BallotImages) == 0 {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "ballot_images cannot be empty")
		return
	}

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	for _, img := range req.BallotImages {
		if img.URL == "" || img.PublicID == "" {
			middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "ballot images need url and public_id")
			return
		}
		_, err := h.db.Exec(`
			INSERT INTO ballot_image (event_id, public_id, url, used)
			VALUES ($1, $2, $3, FALSE)
			ON CONFLICT (event_id, public_id) DO NOTHING
		`, eventID, img.PublicID, img.URL)
		if err != nil {
			slog.Error("failed to insert ballot image", "error", err, "event_id", eventID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add ballot images")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusCreated, map[string]int{"added": len(req.BallotImages)})
}

// GetBallotImages handles GET /events/{id}/ballot-images
// ?filter=available|used|all (default all)
func (h *EventHandler) GetBallotImages(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	query := `SELECT public_id, url FROM ballot_image WHERE event_id = $1`
	switch r.URL.Query().Get("filter") {
	case "available":
		query += ` AND used = FALSE`
	case "used":
		query += ` AND used = TRUE`
	case "", "all":
	default:
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "filter must be available, used or all")
		return
	}
	query += ` ORDER BY public_id`

	rows, err := h.db.Query(query, eventID)
	if err != nil {
		slog.Error("failed to query ballot images", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	images := []models.BallotImageRecord{}
	for rows.Next() {
		var img models.BallotImageRecord
		if err := rows.Scan(&img.PublicID, &img.URL); err != nil {
			slog.Error("failed to scan ballot image", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		images = append(images, img)
	}

	middleware.JSONResponse(w, http.StatusOK, images)
}

// fetchEvent loads one event row, including its rotating-code fields.
func fetchEvent(db *sql.DB, eventID string) (*models.VoteEvent, error) {
	var ev models.VoteEvent
	var description sql.NullString
	var code sql.NullString
	var codeExpires sql.NullTime

	err := db.QueryRow(`
		SELECT id, title, description, election_type, voting_mode,
		       reg_end_time, vote_start_time, vote_end_time,
		       code_rotation_minutes, current_vote_code, current_code_expires_at,
		       place, created_by, created_at
		FROM vote_event
		WHERE id = $1
	`, eventID).Scan(&ev.ID, &ev.Title, &description, &ev.ElectionType, &ev.VotingMode,
		&ev.RegEndTime, &ev.VoteStartTime, &ev.VoteEndTime,
		&ev.CodeRotationMinutes, &code, &codeExpires,
		&ev.Place, &ev.CreatedBy, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}

	ev.Description = description.String
	if code.Valid {
		ev.CurrentVoteCode = &code.String
	}
	if codeExpires.Valid {
		t := codeExpires.Time
		ev.CurrentCodeExpiresAt = &t
	}

	return &ev, nil
}

// respondEventLookup translates a fetchEvent failure into a response.
func respondEventLookup(w http.ResponseWriter, err error) {
	if err == sql.ErrNoRows {
		middleware.RejectResponse(w, http.StatusNotFound, models.ReasonEventNotFound, "Event not found")
		return
	}
	slog.Error("failed to query event", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

// isUniqueViolation matches the duplicate-key error of both supported
// database engines.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
