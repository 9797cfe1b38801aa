// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

The SQL sticks to the subset shared by PostgreSQL and SQLite, so the same
schema serves the production database and the in-memory test database.

# Tables

The schema includes:

  - vote_event: Event metadata, phase windows, access-code state
  - ballot_image: Selectable nominee images, claimed on registration
  - nominee_reg: Nominee registrations with approval flag
  - voter_reg: Voter registrations with has_voted and email-code state
  - tally: Per-nominee counters keyed by (event, election type, nominee)

# Relationships

	vote_event 1──* ballot_image
	vote_event 1──* nominee_reg
	vote_event 1──* voter_reg
	vote_event 1──* tally

All foreign keys use ON DELETE CASCADE.

# Indexes

Performance indexes on:

  - ballot_image.event_id
  - nominee_reg.event_id
  - voter_reg.event_id
  - tally.(event_id, election_type)
*/
package db
