// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the e-votehub API server.

e-votehub runs club and campus elections: admins schedule a vote event
with registration and voting windows, members register as nominees or
voters, and ballots are checked against a per-event access code before
they count. Three election types are supported (Single, MultiVote, Rank)
along with two access-code schemes (emailed one-time codes for online
events, a rotating shared code for on-campus events).

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=votes.db go run main.go

Or with flags:

	go run main.go -p 4100 -d "postgres://..." -t postgres

A .env file in the working directory is loaded if present; real
environment variables take precedence.

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string (file path for sqlite)

Optional settings:

  - PORT (-p): server port (default: 4100)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - MAIL_FROM (--mail-from): sender address for vote-code emails

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (events, nominees, voters, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types and domain constants
  - auth: Caller identity and ID generation
  - db: Schema creation
  - cliparse: Configuration parsing
  - notify: Per-event WebSocket rooms for live updates
  - mailer: Vote-code delivery port
  - directory: User display-name lookups

See package documentation for each component.
*/
package main
