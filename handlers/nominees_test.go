// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Rahad0Islam/e-votehub/directory"
	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/testutil"
)

func registerNominee(handler *NomineeHandler, eventID, userID, imageID string) *httptest.ResponseRecorder {
	body := models.NomineeRegisterRequest{
		Description: "candidate statement",
		SelectedBallot: models.BallotImageRecord{
			PublicID: imageID,
			URL:      "https://img.test/" + imageID,
		},
	}
	req := testutil.MakeRequest("POST", "/events/"+eventID+"/nominees", body, testutil.IdentityHeaders(userID, models.RoleMember))
	req.SetPathValue("id", eventID)
	w := httptest.NewRecorder()
	handler.Register(w, req)
	return w
}

func TestNomineeRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewNomineeHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.AddTestBallotImage(t, db, eventID, "img-1")
	testutil.AddTestBallotImage(t, db, eventID, "img-2")

	w := registerNominee(handler, eventID, "alice", "img-1")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.NomineeRegisterResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.NomineeRegID == "" {
		t.Error("Expected non-empty nominee_reg_id")
	}
	if resp.Approved {
		t.Error("New registrations start unapproved")
	}

	// The claimed image is no longer available.
	var used bool
	if err := db.QueryRow(`SELECT used FROM ballot_image WHERE event_id = $1 AND public_id = 'img-1'`, eventID).Scan(&used); err != nil {
		t.Fatalf("Failed to read ballot image: %v", err)
	}
	if !used {
		t.Error("Expected claimed image to be marked used")
	}

	// Same user cannot register twice.
	w = registerNominee(handler, eventID, "alice", "img-2")
	testutil.AssertStatus(t, w, http.StatusConflict)
	assertReason(t, w, models.ReasonAlreadyRegistered)

	// Another user cannot claim the taken image.
	w = registerNominee(handler, eventID, "bob", "img-1")
	testutil.AssertStatus(t, w, http.StatusConflict)
	assertReason(t, w, models.ReasonBallotAlreadyUsed)

	// Unknown image.
	w = registerNominee(handler, eventID, "carol", "img-nope")
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestNomineeRegisterOutsideRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewNomineeHandler(db, directory.Noop{})

	for _, phase := range []string{models.PhaseWaiting, models.PhaseVoting, models.PhaseFinished} {
		t.Run(phase, func(t *testing.T) {
			eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, phase)
			testutil.AddTestBallotImage(t, db, eventID, "img-1")

			w := registerNominee(handler, eventID, "alice", "img-1")
			testutil.AssertStatus(t, w, http.StatusForbidden)
			assertReason(t, w, models.ReasonRegistrationClosed)
		})
	}
}

func TestNomineeRegisterConcurrentImageClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewNomineeHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.AddTestBallotImage(t, db, eventID, "img-contested")

	const attempts = 8
	var succeeded atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := registerNominee(handler, eventID, "user-"+string(rune('a'+n)), "img-contested")
			if w.Code == http.StatusCreated {
				succeeded.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if got := succeeded.Load(); got != 1 {
		t.Errorf("Expected exactly 1 successful claim, got %d", got)
	}

	var regs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM nominee_reg WHERE event_id = $1`, eventID).Scan(&regs); err != nil {
		t.Fatalf("Failed to count registrations: %v", err)
	}
	if regs != 1 {
		t.Errorf("Expected exactly 1 registration row, got %d", regs)
	}
}

func TestNomineeApprove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewNomineeHandler(db, directory.Noop{})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.CreateTestNominee(t, db, eventID, "alice", false)

	approve := func(headers map[string]string, nomineeID string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/events/"+eventID+"/nominees/approve",
			models.ApproveNomineeRequest{NomineeID: nomineeID}, headers)
		req.SetPathValue("id", eventID)
		w := httptest.NewRecorder()
		handler.Approve(w, req)
		return w
	}

	// Non-admin rejected.
	w := approve(testutil.IdentityHeaders("member-1", models.RoleMember), "alice")
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	// Unknown nominee.
	w = approve(testutil.IdentityHeaders("admin-1", models.RoleAdmin), "ghost")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// Approval succeeds and is visible to the eligibility set.
	w = approve(testutil.IdentityHeaders("admin-1", models.RoleAdmin), "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	ids, err := approvedNomineeIDs(db, eventID)
	if err != nil {
		t.Fatalf("Failed to read approved set: %v", err)
	}
	if len(ids) != 1 || ids[0] != "alice" {
		t.Errorf("Expected approved set [alice], got %v", ids)
	}

	// Approving twice is a conflict.
	w = approve(testutil.IdentityHeaders("admin-1", models.RoleAdmin), "alice")
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestNomineeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewNomineeHandler(db, directory.Static{"alice": "Alice Ahmed"})

	eventID := testutil.CreateTestEvent(t, db, models.TypeSingle, models.ModeOnline, models.PhaseRegistration)
	testutil.CreateTestNominee(t, db, eventID, "alice", true)
	testutil.CreateTestNominee(t, db, eventID, "bob", false)

	list := func(query string) []models.NomineeReg {
		req := testutil.MakeRequest("GET", "/events/"+eventID+"/nominees"+query, nil, nil)
		req.SetPathValue("id", eventID)
		w := httptest.NewRecorder()
		handler.List(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var nominees []models.NomineeReg
		testutil.AssertJSON(t, w, &nominees)
		return nominees
	}

	all := list("")
	if len(all) != 2 {
		t.Fatalf("Expected 2 nominees, got %d", len(all))
	}

	approved := list("?approved=true")
	if len(approved) != 1 || approved[0].UserID != "alice" {
		t.Fatalf("Expected only alice approved, got %v", approved)
	}
	if approved[0].DisplayName != "Alice Ahmed" {
		t.Errorf("Expected resolved display name, got %q", approved[0].DisplayName)
	}

	pending := list("?approved=false")
	if len(pending) != 1 || pending[0].UserID != "bob" {
		t.Fatalf("Expected only bob pending, got %v", pending)
	}
	// Bob is not in the directory; placeholder applies.
	if pending[0].DisplayName != directory.Unknown {
		t.Errorf("Expected placeholder name, got %q", pending[0].DisplayName)
	}
}
