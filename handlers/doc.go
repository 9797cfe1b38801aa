// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the e-votehub API.

# Handler Types

Each handler is a struct holding its collaborators:

  - EventHandler: Event lifecycle (create, retime, ballot images, listing)
  - NomineeHandler: Nominee registration, ballot-image claims, approval
  - VoterHandler: Voter registration, participation, caller status
  - VotingHandler: Access codes and ballot casting
  - ResultsHandler: Standings retrieval

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(db, hub, mail)

# Event Phases

An event's phase derives from its three configured times; nothing is
stored:

	now < regEnd                    → registration
	regEnd <= now < voteStart       → waiting
	voteStart <= now <= voteEnd     → voting (inclusive both ends)
	now > voteEnd                   → finished

ResolvePhase in phase.go is the single source of this mapping; every
gate (registration cutoff, voting window, code rotation) goes through it.

# Vote Casting

CastVote validates in a fixed fail-fast order - registration, ballot
shape, event, access code, has-voted, nominee eligibility, phase - then
commits the has_voted flip and the tally update in one transaction.
Counter updates are atomic upserts in tally.go, so concurrent ballots
never lose increments.

# Rank Scoring

A Rank ballot contributes one score per approved nominee: declared
ranks clamp into [1, N], unranked and omitted nominees score the worst
value N, where N is the approved-nominee count snapshotted at the first
Rank ballot. Lower accumulated totals mean better placement.

# Access Codes

Online events email each voter a 6-digit one-time code valid for 10
minutes. On-campus events share a rotating 6-digit code, regenerated
lazily on read or explicitly by an admin, valid for the event's
configured rotation interval. Code logic lives in code.go.
*/
package handlers
