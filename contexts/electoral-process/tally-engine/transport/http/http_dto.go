package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ComputeResultRequest struct {
	Kind string `json:"kind"`
}

type ResultLineItem struct {
	SlateID     string  `json:"slate_id"`
	SlateNumber int     `json:"slate_number"`
	SlateName   string  `json:"slate_name"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
	Rank        int     `json:"rank"`
	Elected     bool    `json:"elected"`
}

type ResultResponse struct {
	ResultID         string           `json:"result_id"`
	ElectionID       string           `json:"election_id"`
	Kind             string           `json:"kind"`
	ComputedAt       string           `json:"computed_at"`
	EligibleElectors int              `json:"eligible_electors"`
	TotalBallots     int              `json:"total_ballots"`
	Voters           int              `json:"voters"`
	SlateVotes       int              `json:"slate_votes"`
	BlankVotes       int              `json:"blank_votes"`
	NullVotes        int              `json:"null_votes"`
	VoidedBallots    int              `json:"voided_ballots"`
	BlankPct         float64          `json:"blank_pct"`
	ParticipationPct float64          `json:"participation_pct"`
	AbstentionPct    float64          `json:"abstention_pct"`
	Lines            []ResultLineItem `json:"lines"`
	SupersedesID     string           `json:"supersedes_id,omitempty"`
	Invalidated      bool             `json:"invalidated"`
}

type ResultListResponse struct {
	Items []ResultResponse `json:"items"`
}
