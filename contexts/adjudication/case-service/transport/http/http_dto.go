package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FileCaseRequest struct {
	ElectionID  string `json:"election_id"`
	CaseType    string `json:"case_type"`
	SubjectType string `json:"subject_type,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
	Anonymous   bool   `json:"anonymous"`
	Summary     string `json:"summary"`
}

type StartAnalysisRequest struct {
	AnalystID string `json:"analyst_id"`
}

type RuleAdmissibilityRequest struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

type SubmitEvidenceRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
	Note     string `json:"note,omitempty"`
}

type SubmitDefenseRequest struct {
	Content     string `json:"content"`
	DocumentURL string `json:"document_url,omitempty"`
}

type FileAppealRequest struct {
	Grounds string `json:"grounds"`
}

type CounterArgumentsRequest struct {
	Content string `json:"content"`
}

type JudgeAppealRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

type ReopenCaseRequest struct {
	Reason string `json:"reason"`
}

type CaseResponse struct {
	CaseID                string `json:"case_id"`
	Protocol              string `json:"protocol"`
	ElectionID            string `json:"election_id"`
	CaseType              string `json:"case_type"`
	SubjectType           string `json:"subject_type,omitempty"`
	SubjectID             string `json:"subject_id,omitempty"`
	Anonymous             bool   `json:"anonymous"`
	Summary               string `json:"summary"`
	Status                string `json:"status"`
	Overdue               bool   `json:"overdue"`
	AnalystID             string `json:"analyst_id,omitempty"`
	AdmissibilityDeadline string `json:"admissibility_deadline,omitempty"`
	DefenseDeadline       string `json:"defense_deadline,omitempty"`
	AppealDeadline        string `json:"appeal_deadline,omitempty"`
	JudgmentID            string `json:"judgment_id,omitempty"`
	Outcome               string `json:"outcome,omitempty"`
	AppealOutcome         string `json:"appeal_outcome,omitempty"`
	ReopenCount           int    `json:"reopen_count"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

type HistoryItem struct {
	PreviousStatus string `json:"previous_status,omitempty"`
	NewStatus      string `json:"new_status"`
	Actor          string `json:"actor"`
	Reason         string `json:"reason,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

type EvidenceResponse struct {
	EvidenceID  string `json:"evidence_id"`
	CaseID      string `json:"case_id"`
	DocumentURL string `json:"document_url"`
	Note        string `json:"note,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

type DefenseResponse struct {
	DefenseID   string `json:"defense_id"`
	CaseID      string `json:"case_id"`
	SubmittedAt string `json:"submitted_at"`
	Timely      bool   `json:"timely"`
}

type AppealResponse struct {
	AppealID string `json:"appeal_id"`
	CaseID   string `json:"case_id"`
	FiledAt  string `json:"filed_at"`
	Timely   bool   `json:"timely"`
}

type CaseFileResponse struct {
	Case     CaseResponse       `json:"case"`
	History  []HistoryItem      `json:"history"`
	Evidence []EvidenceResponse `json:"evidence"`
	Defenses []DefenseResponse  `json:"defenses"`
	Appeals  []AppealResponse   `json:"appeals"`
}

type CaseListResponse struct {
	Items []CaseResponse `json:"items"`
}
