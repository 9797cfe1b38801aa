// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the e-votehub API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, hub, mail, users)

# Endpoints

Health:

	GET /health

Event lifecycle (admin, requires X-User-Role: admin):

	POST /events                    - Create event with ballot images
	PUT  /events/{id}/times         - Adjust phase windows
	POST /events/{id}/ballot-images - Add more ballot images

Event browsing (public):

	GET /events                    - List events (?status= filters by phase)
	GET /events/{id}/ballot-images - List images (?filter=available|used|all)

Nominees:

	POST /events/{id}/nominees         - Register, claiming a ballot image
	POST /events/{id}/nominees/approve - Approve (admin)
	GET  /events/{id}/nominees         - List (?approved=true|false)

Voters:

	POST /events/{id}/voters        - Register to vote
	GET  /events/{id}/voters        - List registered voters
	GET  /events/{id}/participation - Turnout split
	GET  /events/{id}/my-status     - Caller's registration state

Access codes and ballots:

	POST /events/{id}/vote-code   - Email the caller a one-time code (online)
	POST /events/{id}/code/rotate - Rotate the shared code (admin, on-campus)
	GET  /events/{id}/code        - Read the shared code (admin, on-campus)
	POST /events/{id}/votes       - Cast a ballot

Results and live updates:

	GET /events/{id}/results - Current standings
	GET /events/{id}/ws      - WebSocket room for the event

# Handler Initialization

The router creates handler instances with dependency injection:

	eventHandler := handlers.NewEventHandler(db, hub)
	nomineeHandler := handlers.NewNomineeHandler(db, users)
	voterHandler := handlers.NewVoterHandler(db, users)
	votingHandler := handlers.NewVotingHandler(db, hub, mail)
	resultsHandler := handlers.NewResultsHandler(db, users, hub)
*/
package router
