// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rahad0Islam/e-votehub/directory"
	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/testutil"
)

func TestVoterRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewVoterHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)

	register := func(userID string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/events/"+eventID+"/voters", nil, testutil.IdentityHeaders(userID, models.RoleMember))
		req.SetPathValue("id", eventID)
		w := httptest.NewRecorder()
		handler.Register(w, req)
		return w
	}

	w := register("voter-1")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.VoterRegisterResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.VoterRegID == "" {
		t.Error("Expected non-empty voter_reg_id")
	}

	// Duplicate registration.
	w = register("voter-1")
	testutil.AssertStatus(t, w, http.StatusConflict)
	assertReason(t, w, models.ReasonAlreadyRegistered)

	// Missing identity header.
	req := testutil.MakeRequest("POST", "/events/"+eventID+"/voters", nil, nil)
	req.SetPathValue("id", eventID)
	w = httptest.NewRecorder()
	handler.Register(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestVoterRegisterAfterDeadline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewVoterHandler(db, directory.Noop{})

	for _, phase := range []string{models.PhaseWaiting, models.PhaseVoting, models.PhaseFinished} {
		t.Run(phase, func(t *testing.T) {
			eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, phase)

			req := testutil.MakeRequest("POST", "/events/"+eventID+"/voters", nil, testutil.IdentityHeaders("voter-1", models.RoleMember))
			req.SetPathValue("id", eventID)
			w := httptest.NewRecorder()
			handler.Register(w, req)

			testutil.AssertStatus(t, w, http.StatusForbidden)
			assertReason(t, w, models.ReasonRegistrationClosed)
		})
	}
}

func TestParticipation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewVoterHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseVoting)
	testutil.CreateTestVoter(t, db, eventID, "voter-1")
	testutil.CreateTestVoter(t, db, eventID, "voter-2")
	testutil.CreateTestVoter(t, db, eventID, "voter-3")
	testutil.CreateTestVoter(t, db, eventID, "voter-4")
	if _, err := db.Exec(`UPDATE voter_reg SET has_voted = TRUE WHERE user_id IN ('voter-1', 'voter-2', 'voter-3')`); err != nil {
		t.Fatalf("Failed to mark voters: %v", err)
	}

	req := testutil.MakeRequest("GET", "/events/"+eventID+"/participation", nil, nil)
	req.SetPathValue("id", eventID)
	w := httptest.NewRecorder()
	handler.Participation(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ParticipationResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Voted) != 3 {
		t.Errorf("Expected 3 voted, got %d", len(resp.Voted))
	}
	if len(resp.NotVoted) != 1 {
		t.Errorf("Expected 1 not voted, got %d", len(resp.NotVoted))
	}
	if resp.Turnout != 75 {
		t.Errorf("Expected 75%% turnout, got %v", resp.Turnout)
	}
}

func TestMyStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewVoterHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseVoting)
	testutil.CreateTestVoter(t, db, eventID, "voter-1")
	testutil.CreateTestNominee(t, db, eventID, "voter-1", true)

	myStatus := func(userID string) models.MyStatusResponse {
		req := testutil.MakeRequest("GET", "/events/"+eventID+"/my-status", nil, testutil.IdentityHeaders(userID, models.RoleMember))
		req.SetPathValue("id", eventID)
		w := httptest.NewRecorder()
		handler.MyStatus(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.MyStatusResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	status := myStatus("voter-1")
	if !status.Registered || status.HasVoted {
		t.Errorf("Expected registered, not voted: %+v", status)
	}
	if !status.NomineeRegistered || !status.NomineeApproved {
		t.Errorf("Expected approved nominee: %+v", status)
	}

	status = myStatus("stranger")
	if status.Registered || status.NomineeRegistered {
		t.Errorf("Expected empty status for stranger: %+v", status)
	}
}
