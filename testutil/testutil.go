// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Rahad0Islam/e-votehub/auth"
	"github.com/Rahad0Islam/e-votehub/db"
	"github.com/Rahad0Islam/e-votehub/models"
)

// SetupTestDB opens a fresh in-memory database with the full schema.
// Single connection: an in-memory SQLite database exists per connection,
// and it keeps transactional code honest about mixing tx and pool queries.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// CreateTestEvent inserts an event whose times place it in the given phase
// relative to now, and returns its ID.
func CreateTestEvent(t *testing.T, conn *sql.DB, electionType, votingMode, phase string) string {
	t.Helper()

	now := time.Now()
	var regEnd, voteStart, voteEnd time.Time
	switch phase {
	case models.PhaseRegistration:
		regEnd, voteStart, voteEnd = now.Add(time.Hour), now.Add(2*time.Hour), now.Add(3*time.Hour)
	case models.PhaseWaiting:
		regEnd, voteStart, voteEnd = now.Add(-time.Hour), now.Add(time.Hour), now.Add(2*time.Hour)
	case models.PhaseVoting:
		regEnd, voteStart, voteEnd = now.Add(-2*time.Hour), now.Add(-time.Hour), now.Add(time.Hour)
	case models.PhaseFinished:
		regEnd, voteStart, voteEnd = now.Add(-3*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Hour)
	default:
		t.Fatalf("Unknown phase %q", phase)
	}

	eventID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO vote_event (id, title, description, election_type, voting_mode,
			reg_end_time, vote_start_time, vote_end_time, code_rotation_minutes, created_by, created_at)
		VALUES ($1, 'Test Event', 'A test event', $2, $3, $4, $5, $6, $7, 'admin-1', $8)
	`, eventID, electionType, votingMode, regEnd, voteStart, voteEnd, models.DefaultCodeRotationMinutes, now)
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return eventID
}

// AddTestBallotImage inserts an unclaimed ballot image for an event.
func AddTestBallotImage(t *testing.T, conn *sql.DB, eventID, publicID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO ballot_image (event_id, public_id, url, used)
		VALUES ($1, $2, $3, FALSE)
	`, eventID, publicID, "https://img.test/"+publicID)
	if err != nil {
		t.Fatalf("Failed to create test ballot image: %v", err)
	}
}

// CreateTestNominee registers a nominee for an event and returns the
// registration ID.
func CreateTestNominee(t *testing.T, conn *sql.DB, eventID, userID string, approved bool) string {
	t.Helper()

	regID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO nominee_reg (id, event_id, user_id, ballot_public_id, ballot_url, description, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, 'test nominee', $6, $7)
	`, regID, eventID, userID, "ballot-"+userID, "https://img.test/ballot-"+userID, approved, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test nominee: %v", err)
	}

	return regID
}

// CreateTestVoter registers a voter for an event and returns the
// registration ID.
func CreateTestVoter(t *testing.T, conn *sql.DB, eventID, userID string) string {
	t.Helper()

	regID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO voter_reg (id, event_id, user_id, has_voted, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, regID, eventID, userID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return regID
}

// SetVoterEmailCode stores a one-time code on a voter registration.
func SetVoterEmailCode(t *testing.T, conn *sql.DB, eventID, userID, code string, expiresAt time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE voter_reg SET email_code = $1, email_code_expires_at = $2
		WHERE event_id = $3 AND user_id = $4
	`, code, expiresAt, eventID, userID)
	if err != nil {
		t.Fatalf("Failed to set voter email code: %v", err)
	}
}

// SetEventCode stores the rotating on-campus code on an event.
func SetEventCode(t *testing.T, conn *sql.DB, eventID, code string, expiresAt time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE vote_event SET current_vote_code = $1, current_code_expires_at = $2
		WHERE id = $3
	`, code, expiresAt, eventID)
	if err != nil {
		t.Fatalf("Failed to set event code: %v", err)
	}
}

// IdentityHeaders returns the caller-identity headers for a request.
func IdentityHeaders(userID, role string) map[string]string {
	return map[string]string{
		"X-User-ID":   userID,
		"X-User-Role": role,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
