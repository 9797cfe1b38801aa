// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/Rahad0Islam/e-votehub/directory"
	"github.com/Rahad0Islam/e-votehub/handlers"
	"github.com/Rahad0Islam/e-votehub/mailer"
	"github.com/Rahad0Islam/e-votehub/middleware"
	"github.com/Rahad0Islam/e-votehub/notify"
)

func NewRouter(db *sql.DB, hub *notify.Hub, mail mailer.Mailer, users directory.Directory) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(db, hub)
	nomineeHandler := handlers.NewNomineeHandler(db, users)
	voterHandler := handlers.NewVoterHandler(db, users)
	votingHandler := handlers.NewVotingHandler(db, hub, mail)
	resultsHandler := handlers.NewResultsHandler(db, users, hub)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Event lifecycle (admin operations)
	mux.HandleFunc("POST /events", middleware.WithLogging(eventHandler.CreateEvent))
	mux.HandleFunc("PUT /events/{id}/times", middleware.WithLogging(eventHandler.UpdateEventTimes))
	mux.HandleFunc("POST /events/{id}/ballot-images", middleware.WithLogging(eventHandler.AddBallotImages))

	// Event browsing (public)
	mux.HandleFunc("GET /events", middleware.WithLogging(eventHandler.ListEvents))
	mux.HandleFunc("GET /events/{id}/ballot-images", middleware.WithLogging(eventHandler.GetBallotImages))

	// Nominee registration and approval
	mux.HandleFunc("POST /events/{id}/nominees", middleware.WithLogging(nomineeHandler.Register))
	mux.HandleFunc("POST /events/{id}/nominees/approve", middleware.WithLogging(nomineeHandler.Approve))
	mux.HandleFunc("GET /events/{id}/nominees", middleware.WithLogging(nomineeHandler.List))

	// Voter registration and status
	mux.HandleFunc("POST /events/{id}/voters", middleware.WithLogging(voterHandler.Register))
	mux.HandleFunc("GET /events/{id}/voters", middleware.WithLogging(voterHandler.List))
	mux.HandleFunc("GET /events/{id}/participation", middleware.WithLogging(voterHandler.Participation))
	mux.HandleFunc("GET /events/{id}/my-status", middleware.WithLogging(voterHandler.MyStatus))

	// Access codes and ballots
	mux.HandleFunc("POST /events/{id}/vote-code", middleware.WithLogging(votingHandler.SendVoteCode))
	mux.HandleFunc("POST /events/{id}/code/rotate", middleware.WithLogging(votingHandler.RotateCode))
	mux.HandleFunc("GET /events/{id}/code", middleware.WithLogging(votingHandler.CurrentCode))
	mux.HandleFunc("POST /events/{id}/votes", middleware.WithLogging(votingHandler.CastVote))

	// Results retrieval (public)
	mux.HandleFunc("GET /events/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Live updates
	mux.HandleFunc("GET /events/{id}/ws", hub.ServeWS)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("e-votehub API v1"))
	})

	return mux
}
