package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	ElectionID string `json:"election_id"`
	VoteKind   string `json:"vote_kind"`
	SlateID    string `json:"slate_id,omitempty"`
}

type CastVoteResponse struct {
	BallotID   string `json:"ballot_id"`
	ElectionID string `json:"election_id"`
	VoteKind   string `json:"vote_kind"`
	CastAt     string `json:"cast_at"`
	Receipt    string `json:"receipt"`
}

type VerifyReceiptRequest struct {
	ElectionID string `json:"election_id"`
	Receipt    string `json:"receipt"`
}

type VerifyReceiptResponse struct {
	Included bool   `json:"included"`
	CastAt   string `json:"cast_at,omitempty"`
}

type VoidBallotRequest struct {
	CaseID string `json:"case_id"`
}

type BallotResponse struct {
	BallotID     string `json:"ballot_id"`
	ElectionID   string `json:"election_id"`
	SlateID      string `json:"slate_id,omitempty"`
	VoteKind     string `json:"vote_kind"`
	OriginalKind string `json:"original_kind,omitempty"`
	CastAt       string `json:"cast_at"`
	VoidedByCase string `json:"voided_by_case_id,omitempty"`
	VoidedAt     string `json:"voided_at,omitempty"`
}
