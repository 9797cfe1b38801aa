// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"

	"github.com/Rahad0Islam/e-votehub/directory"
	"github.com/Rahad0Islam/e-votehub/middleware"
	"github.com/Rahad0Islam/e-votehub/models"
	"github.com/Rahad0Islam/e-votehub/notify"
)

type ResultsHandler struct {
	db    *sql.DB
	users directory.Directory
	hub   *notify.Hub
}

func NewResultsHandler(db *sql.DB, users directory.Directory, hub *notify.Hub) *ResultsHandler {
	return &ResultsHandler{db: db, users: users, hub: hub}
}

// GetResults handles GET /events/{id}/results
//
// Single and MultiVote counters merge into one list sorted by votes
// descending; Rank scores stay separate, sorted ascending since a lower
// accumulated score means better average placement. Results are readable
// in any phase, so live standings need no extra endpoint.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	if _, err := fetchEvent(h.db, eventID); err != nil {
		respondEventLookup(w, err)
		return
	}

	singles, err := tallyEntries(h.db, eventID, models.TypeSingle)
	if err != nil {
		slog.Error("failed to query tally", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	multis, err := tallyEntries(h.db, eventID, models.TypeMultiVote)
	if err != nil {
		slog.Error("failed to query tally", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	ranks, err := tallyEntries(h.db, eventID, models.TypeRank)
	if err != nil {
		slog.Error("failed to query tally", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := buildResults(singles, multis, ranks)

	ids := make([]string, 0, len(resp.SingleMultiResults)+len(resp.RankResults))
	for _, v := range resp.SingleMultiResults {
		ids = append(ids, v.NomineeID)
	}
	for _, v := range resp.RankResults {
		ids = append(ids, v.NomineeID)
	}
	names := directory.Resolve(h.users, ids)
	for i := range resp.SingleMultiResults {
		resp.SingleMultiResults[i].DisplayName = names[resp.SingleMultiResults[i].NomineeID]
	}
	for i := range resp.RankResults {
		resp.RankResults[i].DisplayName = names[resp.RankResults[i].NomineeID]
	}

	h.hub.Publish(eventID, notify.Event{Type: notify.TypeCountUpdate, EventID: eventID})

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// buildResults merges the counter rows into ordered standings. A nominee
// appearing under both Single and MultiVote contributes one merged row with
// the summed vote count.
func buildResults(singles, multis, ranks []models.TallyEntry) models.ResultsResponse {
	votes := map[string]int{}
	for _, e := range singles {
		votes[e.NomineeID] += e.TotalVote
	}
	for _, e := range multis {
		votes[e.NomineeID] += e.TotalVote
	}

	voteResults := make([]models.VoteResult, 0, len(votes))
	for id, total := range votes {
		voteResults = append(voteResults, models.VoteResult{NomineeID: id, TotalVote: total})
	}
	sort.SliceStable(voteResults, func(i, j int) bool {
		if voteResults[i].TotalVote != voteResults[j].TotalVote {
			return voteResults[i].TotalVote > voteResults[j].TotalVote
		}
		return voteResults[i].NomineeID < voteResults[j].NomineeID
	})

	rankResults := make([]models.RankResult, 0, len(ranks))
	for _, e := range ranks {
		rankResults = append(rankResults, models.RankResult{NomineeID: e.NomineeID, TotalRank: e.TotalRank})
	}
	sort.SliceStable(rankResults, func(i, j int) bool {
		if rankResults[i].TotalRank != rankResults[j].TotalRank {
			return rankResults[i].TotalRank < rankResults[j].TotalRank
		}
		return rankResults[i].NomineeID < rankResults[j].NomineeID
	})

	return models.ResultsResponse{
		SingleMultiResults: voteResults,
		RankResults:        rankResults,
	}
}
