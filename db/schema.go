// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The SQL below sticks to the subset shared by PostgreSQL and SQLite so the
// same schema serves production and the in-memory test database.
const schema = `
-- Vote events
CREATE TABLE IF NOT EXISTS vote_event (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    election_type TEXT NOT NULL CHECK (election_type IN ('Single', 'MultiVote', 'Rank')),
    voting_mode TEXT NOT NULL CHECK (voting_mode IN ('online', 'onCampus')),
    reg_end_time TIMESTAMP NOT NULL,
    vote_start_time TIMESTAMP NOT NULL,
    vote_end_time TIMESTAMP NOT NULL,
    code_rotation_minutes INTEGER NOT NULL DEFAULT 2,
    current_vote_code TEXT,
    current_code_expires_at TIMESTAMP,
    rank_universe_size INTEGER,
    place TEXT,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Ballot images offered by an event; used = claimed by a nominee
CREATE TABLE IF NOT EXISTS ballot_image (
    event_id TEXT NOT NULL REFERENCES vote_event(id) ON DELETE CASCADE,
    public_id TEXT NOT NULL,
    url TEXT NOT NULL,
    used BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (event_id, public_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_image_event ON ballot_image(event_id);

-- Nominee registrations
CREATE TABLE IF NOT EXISTS nominee_reg (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES vote_event(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    ballot_public_id TEXT NOT NULL,
    ballot_url TEXT NOT NULL,
    description TEXT,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_nominee_reg_event ON nominee_reg(event_id);

-- Voter registrations
CREATE TABLE IF NOT EXISTS voter_reg (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES vote_event(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    email_code TEXT,
    email_code_expires_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_voter_reg_event ON voter_reg(event_id);

-- Per-nominee tally counters. The rows sharing (event_id, election_type)
-- form the tally record for that event and counting rule. Counters only
-- ever increase; rows are created lazily by upsert on first contribution.
CREATE TABLE IF NOT EXISTS tally (
    event_id TEXT NOT NULL REFERENCES vote_event(id) ON DELETE CASCADE,
    election_type TEXT NOT NULL CHECK (election_type IN ('Single', 'MultiVote', 'Rank')),
    nominee_id TEXT NOT NULL,
    total_vote INTEGER NOT NULL DEFAULT 0,
    total_rank INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (event_id, election_type, nominee_id)
);

CREATE INDEX IF NOT EXISTS idx_tally_event_type ON tally(event_id, election_type);
`
