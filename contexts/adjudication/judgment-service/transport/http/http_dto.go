package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OpenSessionRequest struct {
	CaseID      string `json:"case_id"`
	CommitteeID string `json:"committee_id"`
}

type CastCommitteeVoteRequest struct {
	MemberID      string `json:"member_id"`
	Value         string `json:"value"`
	Justification string `json:"justification,omitempty"`
	TieBreaker    bool   `json:"tie_breaker,omitempty"`
}

type CloseJudgmentRequest struct {
	FullVoidance bool   `json:"full_voidance,omitempty"`
	EffectiveAt  string `json:"effective_at,omitempty"`
}

type CommitteeVoteResponse struct {
	VoteID        string `json:"vote_id"`
	JudgmentID    string `json:"judgment_id"`
	MemberID      string `json:"member_id"`
	Value         string `json:"value"`
	Justification string `json:"justification,omitempty"`
	TieBreaker    bool   `json:"tie_breaker"`
	CastAt        string `json:"cast_at"`
}

type JudgmentResponse struct {
	JudgmentID   string `json:"judgment_id"`
	CaseID       string `json:"case_id"`
	ElectionID   string `json:"election_id"`
	CommitteeID  string `json:"committee_id"`
	Status       string `json:"status"`
	OpenedBy     string `json:"opened_by"`
	OpenedAt     string `json:"opened_at"`
	ClosedAt     string `json:"closed_at,omitempty"`
	Outcome      string `json:"outcome,omitempty"`
	DecisionType string `json:"decision_type,omitempty"`
}

type VoteListResponse struct {
	Items []CommitteeVoteResponse `json:"items"`
}
