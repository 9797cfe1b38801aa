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

type NomineeHandler struct {
	db    *sql.DB
	users directory.Directory
}

func NewNomineeHandler(db *sql.DB, users directory.Directory) *NomineeHandler {
	return &NomineeHandler{db: db, users: users}
}

// Register handles POST /events/{id}/nominees
// Claims the selected ballot image and creates the registration in one
// transaction, so a contested image is never double-claimed and no
// registration row survives a rejected claim.
func (h *NomineeHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := auth.CallerIdentity(r)
	if err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "caller identity required")
		return
	}

	eventID := r.PathValue("id")

	var req models.NomineeRegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SelectedBallot.PublicID == "" || req.SelectedBallot.URL == "" {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "selected_ballot is required")
		return
	}

	ev, err := fetchEvent(h.db, eventID)
	if err != nil {
		respondEventLookup(w, err)
		return
	}

	if ResolvePhase(ev, time.Now()) != models.PhaseRegistration {
		middleware.RejectResponse(w, http.StatusForbidden, models.ReasonRegistrationClosed, "Nominee registration period has ended")
		return
	}

	var alreadyRegistered bool
	err = h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM nominee_reg WHERE event_id = $1 AND user_id = $2)
	`, eventID, id.UserID).Scan(&alreadyRegistered)
	if err != nil {
		slog.Error("failed to check nominee registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if alreadyRegistered {
		middleware.RejectResponse(w, http.StatusConflict, models.ReasonAlreadyRegistered, "You are already registered as a nominee")
		return
	}

	var imageKnown bool
	err = h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM ballot_image WHERE event_id = $1 AND public_id = $2)
	`, eventID, req.SelectedBallot.PublicID).Scan(&imageKnown)
	if err != nil {
		slog.Error("failed to check ballot image", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !imageKnown {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Selected ballot image does not belong to this event")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// The conditional update is the claim: of two concurrent attempts for
	// the same image, exactly one sees used = FALSE.
	res, err := tx.Exec(`
		UPDATE ballot_image
		SET used = TRUE
		WHERE event_id = $1 AND public_id = $2 AND used = FALSE
	`, eventID, req.SelectedBallot.PublicID)
	if err != nil {
		slog.Error("failed to claim ballot image", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register nominee")
		return
	}
	claimed, _ := res.RowsAffected()
	if claimed == 0 {
		middleware.RejectResponse(w, http.StatusConflict, models.ReasonBallotAlreadyUsed, "Selected ballot already used")
		return
	}

	regID := auth.NewID()
	_, err = tx.Exec(`
		INSERT INTO nominee_reg (id, event_id, user_id, ballot_public_id, ballot_url, description, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
	`, regID, eventID, id.UserID, req.SelectedBallot.PublicID, req.SelectedBallot.URL, req.Description, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			middleware.RejectResponse(w, http.StatusConflict, models.ReasonAlreadyRegistered, "You are already registered as a nominee")
			return
		}
		slog.Error("failed to insert nominee registration", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register nominee")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register nominee")
		return
	}

	slog.Info("nominee registered", "event_id", eventID, "user_id", id.UserID)

	middleware.JSONResponse(w, http.StatusCreated, models.NomineeRegisterResponse{
		NomineeRegID: regID,
		Approved:     false,
	})
}

// Approve handles POST /events/{id}/nominees/approve (admin)
// Eligibility for votes derives solely from the approved flag set here.
func (h *NomineeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r); err != nil {
		middleware.RejectResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "admin identity required")
		return
	}

	eventID := r.PathValue("id")

	var req models.ApproveNomineeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.NomineeID == "" {
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "nominee_id is required")
		return
	}

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	var regID, ballotPublicID string
	var approved bool
	err := h.db.QueryRow(`
		SELECT id, ballot_public_id, approved
		FROM nominee_reg
		WHERE event_id = $1 AND user_id = $2
	`, eventID, req.NomineeID).Scan(&regID, &ballotPublicID, &approved)
	if err == sql.ErrNoRows {
		middleware.RejectResponse(w, http.StatusNotFound, models.ReasonNotFound, "Nominee not found for this event")
		return
	}
	if err != nil {
		slog.Error("failed to query nominee registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if approved {
		middleware.RejectResponse(w, http.StatusConflict, models.ReasonBadRequest, "Nominee is already approved")
		return
	}

	_, err = h.db.Exec(`UPDATE nominee_reg SET approved = TRUE WHERE id = $1`, regID)
	if err != nil {
		slog.Error("failed to approve nominee", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to approve nominee")
		return
	}

	// Registration already reserved the image; this is a retryable
	// membership-style update in case an older row predates reservation.
	_, err = h.db.Exec(`
		UPDATE ballot_image SET used = TRUE
		WHERE event_id = $1 AND public_id = $2
	`, eventID, ballotPublicID)
	if err != nil {
		slog.Warn("failed to mark ballot image used", "error", err, "event_id", eventID)
	}

	slog.Info("nominee approved", "event_id", eventID, "nominee_id", req.NomineeID)

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"approved": true})
}

// List handles GET /events/{id}/nominees
// ?approved=true|false filters; default lists everyone.
func (h *NomineeHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	query := `
		SELECT id, event_id, user_id, ballot_public_id, ballot_url, description, approved, created_at
		FROM nominee_reg
		WHERE event_id = $1`
	switch r.URL.Query().Get("approved") {
	case "true":
		query += ` AND approved = TRUE`
	case "false":
		query += ` AND approved = FALSE`
	case "":
	default:
		middleware.RejectResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "approved must be true or false")
		return
	}
	query += ` ORDER BY created_at`

	rows, err := h.db.Query(query, eventID)
	if err != nil {
		slog.Error("failed to query nominees", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	nominees := []models.NomineeReg{}
	ids := []string{}
	for rows.Next() {
		var n models.NomineeReg
		var description sql.NullString
		if err := rows.Scan(&n.ID, &n.EventID, &n.UserID, &n.BallotPublicID, &n.BallotURL,
			&description, &n.Approved, &n.CreatedAt); err != nil {
			slog.Error("failed to scan nominee", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		n.Description = description.String
		nominees = append(nominees, n)
		ids = append(ids, n.UserID)
	}

	names := directory.Resolve(h.users, ids)
	for i := range nominees {
		nominees[i].DisplayName = names[nominees[i].UserID]
	}

	middleware.JSONResponse(w, http.StatusOK, nominees)
}

// approvedNomineeIDs computes the approved-nominee universe for an event:
// the set of user identities eligible to receive votes.
func approvedNomineeIDs(db *sql.DB, eventID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT user_id FROM nominee_reg
		WHERE event_id = $1 AND approved = TRUE
		ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
