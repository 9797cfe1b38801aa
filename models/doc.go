// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateEventRequest: title, times, election type, voting mode, ballot images
  - UpdateEventTimesRequest: the three window boundaries
  - AddBallotImagesRequest: additional ballot images
  - NomineeRegisterRequest: description plus the chosen ballot image
  - ApproveNomineeRequest: nominee user id
  - CastVoteRequest: election type, selected nominees, access code

# Response Types

Types for JSON responses:

  - CreateEventResponse: event_id
  - NomineeRegisterResponse: nominee_reg_id, approved
  - VoterRegisterResponse: voter_reg_id
  - CastVoteResponse: tallied, message
  - SendVoteCodeResponse / CurrentCodeResponse: code issuance results
  - MyStatusResponse / ParticipationResponse: per-caller and per-event status
  - ResultsResponse: merged vote standings and rank standings
  - ErrorResponse: error, reason, message

# Domain Types

Internal data structures:

  - VoteEvent: event metadata, windows, and access-code state
  - NomineeReg / VoterInfo: registrations
  - TallyEntry: one nominee's accumulated counters
  - VoteResult / RankResult: ordered standings entries

# Constants

Election types:

	TypeSingle    = "Single"
	TypeMultiVote = "MultiVote"
	TypeRank      = "Rank"

Voting modes:

	ModeOnline   = "online"
	ModeOnCampus = "onCampus"

Phases, derived from the event's times:

	PhaseRegistration = "registration"
	PhaseWaiting      = "waiting"
	PhaseVoting       = "voting"
	PhaseFinished     = "finished"

Rejection reason codes (the Reason* constants) give clients a
machine-readable cause alongside every 4xx response.
*/
package models
