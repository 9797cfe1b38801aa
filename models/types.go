package models

import "time"

// Election type constants
const (
	TypeSingle    = "Single"
	TypeMultiVote = "MultiVote"
	TypeRank      = "Rank"
)

// Voting mode constants
const (
	ModeOnline   = "online"
	ModeOnCampus = "onCampus"
)

// Event phase constants, derived from the event's configured times
const (
	PhaseRegistration = "registration"
	PhaseWaiting      = "waiting"
	PhaseVoting       = "voting"
	PhaseFinished     = "finished"
)

// Caller roles, supplied by the identity collaborator
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Rejection reason codes returned in ErrorResponse.Reason
const (
	ReasonNotRegistered       = "not_registered"
	ReasonInvalidBallotShape  = "invalid_ballot_shape"
	ReasonEventNotFound       = "event_not_found"
	ReasonAlreadyVoted        = "already_voted"
	ReasonAlreadyRegistered   = "already_registered"
	ReasonNomineeNotEligible  = "nominee_not_eligible"
	ReasonVotingNotOpen       = "voting_not_open"
	ReasonRegistrationClosed  = "registration_closed"
	ReasonBallotAlreadyUsed   = "ballot_already_used"
	ReasonNoCodeRequested     = "no_code_requested"
	ReasonCodeExpired         = "code_expired"
	ReasonCodeMismatch        = "code_mismatch"
	ReasonMalformedCode       = "malformed_code"
	ReasonCodeNotActive       = "code_not_active"
	ReasonVotingNotActive     = "voting_not_active"
	ReasonCodeDeliveryFailed  = "code_delivery_failed"
	ReasonUnknownElectionType = "unknown_election_type"
	ReasonInvalidTimes        = "invalid_times"
	ReasonNotFound            = "not_found"
	ReasonUnauthorized        = "unauthorized"
	ReasonBadRequest          = "bad_request"
	ReasonInternal            = "internal"
)

// DefaultCodeRotationMinutes is the on-campus rotation interval used when an
// event does not configure one.
const DefaultCodeRotationMinutes = 2

// EmailCodeTTL is the fixed lifetime of a one-time online voting code.
// Independent of the event's rotation interval.
const EmailCodeTTL = 10 * time.Minute

// Request types

type BallotImageRecord struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type CreateEventRequest struct {
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	ElectionType        string              `json:"election_type"`
	VotingMode          string              `json:"voting_mode"`
	RegEndTime          time.Time           `json:"reg_end_time"`
	VoteStartTime       time.Time           `json:"vote_start_time"`
	VoteEndTime         time.Time           `json:"vote_end_time"`
	CodeRotationMinutes int                 `json:"code_rotation_minutes,omitempty"`
	Place               string              `json:"place,omitempty"`
	BallotImages        []BallotImageRecord `json:"ballot_images"`
}

type UpdateEventTimesRequest struct {
	RegEndTime    time.Time `json:"reg_end_time"`
	VoteStartTime time.Time `json:"vote_start_time"`
	VoteEndTime   time.Time `json:"vote_end_time"`
}

type AddBallotImagesRequest struct {
	BallotImages []BallotImageRecord `json:"ballot_images"`
}

type NomineeRegisterRequest struct {
	Description    string            `json:"description"`
	SelectedBallot BallotImageRecord `json:"selected_ballot"`
}

type ApproveNomineeRequest struct {
	NomineeID string `json:"nominee_id"`
}

// SelectedNominee is one ballot line. Rank is only meaningful for Rank
// elections; nil means the voter listed the nominee without ranking them.
type SelectedNominee struct {
	NomineeID string `json:"nominee_id"`
	Rank      *int   `json:"rank,omitempty"`
}

type CastVoteRequest struct {
	ElectionType     string            `json:"election_type"`
	SelectedNominees []SelectedNominee `json:"selected_nominees"`
	Code             string            `json:"code,omitempty"`
}

// Response types

type CreateEventResponse struct {
	EventID string `json:"event_id"`
}

type NomineeRegisterResponse struct {
	NomineeRegID string `json:"nominee_reg_id"`
	Approved     bool   `json:"approved"`
}

type VoterRegisterResponse struct {
	VoterRegID string `json:"voter_reg_id"`
}

type CastVoteResponse struct {
	Tallied bool   `json:"tallied"`
	Message string `json:"message"`
}

type SendVoteCodeResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type CurrentCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MyStatusResponse struct {
	Registered        bool `json:"registered"`
	HasVoted          bool `json:"has_voted"`
	NomineeRegistered bool `json:"nominee_registered"`
	NomineeApproved   bool `json:"nominee_approved"`
}

type ParticipationResponse struct {
	Voted    []VoterInfo `json:"voted"`
	NotVoted []VoterInfo `json:"not_voted"`
	Turnout  float64     `json:"turnout_percent"`
}

// Domain types

type VoteEvent struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	ElectionType         string     `json:"election_type"`
	VotingMode           string     `json:"voting_mode"`
	RegEndTime           time.Time  `json:"reg_end_time"`
	VoteStartTime        time.Time  `json:"vote_start_time"`
	VoteEndTime          time.Time  `json:"vote_end_time"`
	CodeRotationMinutes  int        `json:"code_rotation_minutes"`
	CurrentVoteCode      *string    `json:"-"` // only exposed via the code endpoint
	CurrentCodeExpiresAt *time.Time `json:"-"`
	Place                *string    `json:"place,omitempty"`
	CreatedBy            string     `json:"created_by"`
	CreatedAt            time.Time  `json:"created_at"`

	// Derived on read, never stored
	Phase  string `json:"phase,omitempty"`
	EndsIn string `json:"ends_in,omitempty"`
}

type NomineeReg struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	BallotPublicID string    `json:"ballot_public_id"`
	BallotURL      string    `json:"ballot_url"`
	Description    string    `json:"description"`
	Approved       bool      `json:"approved"`
	CreatedAt      time.Time `json:"created_at"`

	DisplayName string `json:"display_name,omitempty"`
}

type VoterInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	HasVoted    bool   `json:"has_voted"`
}

// TallyEntry is one nominee's accumulated counters for an event and election
// type. TotalVote serves Single/MultiVote; TotalRank serves Rank (lower
// accumulated score is better).
type TallyEntry struct {
	NomineeID string `json:"nominee_id"`
	TotalVote int    `json:"total_vote"`
	TotalRank int    `json:"total_rank"`
}

// Result types

type VoteResult struct {
	NomineeID   string `json:"nominee_id"`
	DisplayName string `json:"display_name"`
	TotalVote   int    `json:"total_vote"`
}

type RankResult struct {
	NomineeID   string `json:"nominee_id"`
	DisplayName string `json:"display_name"`
	TotalRank   int    `json:"total_rank"`
}

type ResultsResponse struct {
	SingleMultiResults []VoteResult `json:"single_multi_results"`
	RankResults        []RankResult `json:"rank_results"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
