// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/notify"
	"github.com/Rahad0Islam/e-votehub/testutil"
)

func validCreateEventRequest() models.CreateEventRequest {
	now := time.Now()
	return models.CreateEventRequest{
		Title:         "Club President 2025",
		Description:   "Annual club election",
		ElectionType:  models.TypeSingle,
		VotingMode:    models.ModeOnline,
		RegEndTime:    now.Add(24 * time.Hour),
		VoteStartTime: now.Add(48 * time.Hour),
		VoteEndTime:   now.Add(72 * time.Hour),
		BallotImages: []models.BallotImageRecord{
			{PublicID: "img-1", URL: "https://img.test/img-1"},
			{PublicID: "img-2", URL: "https://img.test/img-2"},
		},
	}
}

func TestCreateEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewEventHandler(db, notify.NewHub())

	tests := []struct {
		name           string
		headers        map[string]string
		mutate         func(*models.CreateEventRequest)
		expectedStatus int
	}{
		{
			name:           "valid event",
			headers:        testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate:         func(r *models.CreateEventRequest) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "non-admin caller",
			headers:        testutil.IdentityHeaders("member-1", models.RoleMember),
			mutate:         func(r *models.CreateEventRequest) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing title",
			headers:        testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate:         func(r *models.CreateEventRequest) { r.Title = "" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown election type",
			headers:        testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate:         func(r *models.CreateEventRequest) { r.ElectionType = "Approval" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown voting mode",
			headers:        testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate:         func(r *models.CreateEventRequest) { r.VotingMode = "hybrid" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "vote start before reg end",
			headers: testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate: func(r *models.CreateEventRequest) {
				r.VoteStartTime = r.RegEndTime.Add(-time.Hour)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no ballot images",
			headers:        testutil.IdentityHeaders("admin-1", models.RoleAdmin),
			mutate:         func(r *models.CreateEventRequest) { r.BallotImages = nil },
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateEventRequest()
			tt.mutate(&body)

			req := testutil.MakeRequest("POST", "/events", body, tt.headers)
			w := httptest.NewRecorder()
			handler.CreateEvent(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.CreateEventResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.EventID == "" {
					t.Error("Expected non-empty event_id")
				}

				// Ballot images are stored alongside the event.
				var count int
				if err := db.QueryRow(`SELECT COUNT(*) FROM ballot_image WHERE event_id = $1`, resp.EventID).Scan(&count); err != nil {
					t.Fatalf("Failed to count ballot images: %v", err)
				}
				if count != 2 {
					t.Errorf("Expected 2 ballot images, got %d", count)
				}
			}
		})
	}
}

func TestCreateEventDefaultsRotation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewEventHandler(db, notify.NewHub())

	body := validCreateEventRequest()
	body.VotingMode = models.ModeOnCampus

	req := testutil.MakeRequest("POST", "/events", body, testutil.IdentityHeaders("admin-1", models.RoleAdmin))
	w := httptest.NewRecorder()
	handler.CreateEvent(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreateEventResponse
	testutil.AssertJSON(t, w, &resp)

	var rotation int
	if err := db.QueryRow(`SELECT code_rotation_minutes FROM vote_event WHERE id = $1`, resp.EventID).Scan(&rotation); err != nil {
		t.Fatalf("Failed to read rotation interval: %v", err)
	}
	if rotation != models.DefaultCodeRotationMinutes {
		t.Errorf("Expected default rotation %d, got %d", models.DefaultCodeRotationMinutes, rotation)
	}
}

func TestListEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewEventHandler(db, notify.NewHub())

	testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.CreateTestEvent(t, db, models.TypeRank, models.ModeOnCampus, models.PhaseVoting)
	testutil.CreateTestEvent(t, db, models.TypeMultiVote, models.ModeOnline, models.PhaseFinished)

	req := testutil.MakeRequest("GET", "/events", nil, nil)
	w := httptest.NewRecorder()
	handler.ListEvents(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var events []models.VoteEvent
	testutil.AssertJSON(t, w, &events)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Phase == "" {
			t.Errorf("Event %s missing derived phase", ev.ID)
		}
	}

	// Phase filter.
	req = testutil.MakeRequest("GET", "/events?status=voting", nil, nil)
	w = httptest.NewRecorder()
	handler.ListEvents(w, req)

	testutil.AssertJSON(t, w, &events)
	if len(events) != 1 {
		t.Fatalf("Expected 1 voting event, got %d", len(events))
	}
	if events[0].Phase != models.PhaseVoting {
		t.Errorf("Expected voting phase, got %q", events[0].Phase)
	}
	if events[0].EndsIn == "" {
		t.Error("Expected a deadline label for an active event")
	}
}

func TestUpdateEventTimes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewEventHandler(db, notify.NewHub())

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)

	now := time.Now()
	body := models.UpdateEventTimesRequest{
		RegEndTime:    now.Add(-2 * time.Hour),
		VoteStartTime: now.Add(-time.Hour),
		VoteEndTime:   now.Add(time.Hour),
	}

	req := testutil.MakeRequest("PUT", "/events/"+eventID+"/times", body, testutil.IdentityHeaders("admin-1", models.RoleAdmin))
	req.SetPathValue("id", eventID)
	w := httptest.NewRecorder()
	handler.UpdateEventTimes(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// The event moved straight into the voting phase.
	ev, err := fetchEvent(db, eventID)
	if err != nil {
		t.Fatalf("Failed to fetch event: %v", err)
	}
	if got := ResolvePhase(ev, time.Now()); got != models.PhaseVoting {
		t.Errorf("Expected voting phase after retiming, got %q", got)
	}

	// Unknown event.
	req = testutil.MakeRequest("PUT", "/events/no-such/times", body, testutil.IdentityHeaders("admin-1", models.RoleAdmin))
	req.SetPathValue("id", "no-such")
	w = httptest.NewRecorder()
	handler.UpdateEventTimes(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetBallotImages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewEventHandler(db, notify.NewHub())

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.AddTestBallotImage(t, db, eventID, "img-free")
	testutil.AddTestBallotImage(t, db, eventID, "img-taken")
	if _, err := db.Exec(`UPDATE ballot_image SET used = TRUE WHERE public_id = 'img-taken'`); err != nil {
		t.Fatalf("Failed to mark image used: %v", err)
	}

	tests := []struct {
		filter   string
		expected []string
	}{
		{"available", []string{"img-free"}},
		{"used", []string{"img-taken"}},
		{"all", []string{"img-free", "img-taken"}},
		{"", []string{"img-free", "img-taken"}},
	}

	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			path := "/events/" + eventID + "/ballot-images"
			if tt.filter != "" {
				path += "?filter=" + tt.filter
			}
			req := testutil.MakeRequest("GET", path, nil, nil)
			req.SetPathValue("id", eventID)
			w := httptest.NewRecorder()
			handler.GetBallotImages(w, req)
			testutil.AssertStatus(t, w, http.StatusOK)

			var images []models.BallotImageRecord
			testutil.AssertJSON(t, w, &images)
			if len(images) != len(tt.expected) {
				t.Fatalf("Expected %d images, got %d", len(tt.expected), len(images))
			}
			for i, want := range tt.expected {
				if images[i].PublicID != want {
					t.Errorf("Expected image %q at %d, got %q", want, i, images[i].PublicID)
				}
			}
		})
	}
}
