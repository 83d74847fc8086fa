package entities

import "time"

type CaseType string

const (
	CaseTypeComplaint   CaseType = "complaint"
	CaseTypeImpugnation CaseType = "impugnation"
)

// SubjectType tags what the proceeding is against. One state machine serves
// all three variants; subject-specific behavior keys off this tag instead of
// parallel case hierarchies.
type SubjectType string

const (
	SubjectSlate  SubjectType = "slate"
	SubjectMember SubjectType = "member"
	SubjectResult SubjectType = "result"
)

func (s SubjectType) Valid() bool {
	switch s {
	case SubjectSlate, SubjectMember, SubjectResult:
		return true
	}
	return false
}

type CaseStatus string

const (
	StatusReceived              CaseStatus = "received"
	StatusUnderAnalysis         CaseStatus = "under_analysis"
	StatusAdmissibilityAccepted CaseStatus = "admissibility_accepted"
	StatusAdmissibilityRejected CaseStatus = "admissibility_rejected"
	StatusAwaitingDefense       CaseStatus = "awaiting_defense"
	StatusDefenseSubmitted      CaseStatus = "defense_submitted"
	StatusDefenseNotSubmitted   CaseStatus = "defense_not_submitted"
	StatusAwaitingJudgment      CaseStatus = "awaiting_judgment"
	StatusJudged                CaseStatus = "judged"
	StatusAwaitingAppeal        CaseStatus = "awaiting_appeal"
	StatusAppealFiled           CaseStatus = "appeal_filed"
	StatusAppealJudged          CaseStatus = "appeal_judged"
	StatusArchived              CaseStatus = "archived"
)

type CaseOutcome string

const (
	OutcomeUpheld          CaseOutcome = "upheld"
	OutcomeDismissed       CaseOutcome = "dismissed"
	OutcomePartiallyUpheld CaseOutcome = "partially_upheld"
)

// Case is the aggregate root of one adjudication proceeding. Deadline
// pointers are nil until the clock that owns them starts.
type Case struct {
	CaseID                string
	Protocol              string
	ElectionID            string
	Type                  CaseType
	SubjectType           SubjectType
	SubjectID             string
	ComplainantID         string
	Anonymous             bool
	Summary               string
	Status                CaseStatus
	Overdue               bool
	AnalystID             string
	AdmissibilityDeadline *time.Time
	DefenseDeadline       *time.Time
	AppealDeadline        *time.Time
	JudgmentID            string
	Outcome               CaseOutcome
	AppealOutcome         CaseOutcome
	ReopenCount           int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Terminal reports whether the case sits in a state that only Reopen can
// leave. An expired appeal window keeps status awaiting_appeal, so that
// status is terminal for every transition except appeal filing and reopen.
func (c Case) Terminal() bool {
	switch c.Status {
	case StatusArchived, StatusAppealJudged, StatusAwaitingAppeal:
		return true
	}
	return false
}

// HistoryRecord is one append-only entry of the case log. Records are never
// updated or deleted.
type HistoryRecord struct {
	HistoryID      string
	CaseID         string
	PreviousStatus CaseStatus
	NewStatus      CaseStatus
	Actor          string
	Reason         string
	OccurredAt     time.Time
}

// Evidence stores only the document reference returned by the document
// store, never raw bytes.
type Evidence struct {
	EvidenceID  string
	CaseID      string
	SubmittedBy string
	DocumentURL string
	Note        string
	SubmittedAt time.Time
}

// Defense is a respondent submission. An untimely defense is kept on record
// with Timely=false and does not advance the case.
type Defense struct {
	DefenseID    string
	CaseID       string
	RespondentID string
	Content      string
	DocumentURL  string
	SubmittedAt  time.Time
	Timely       bool
}

type Appeal struct {
	AppealID    string
	CaseID      string
	AppellantID string
	Grounds     string
	FiledAt     time.Time
	Timely      bool
}

// CounterArgument is a contrarrazões filing attached to an appeal before
// its judgment.
type CounterArgument struct {
	CounterID string
	AppealID  string
	AuthorID  string
	Content   string
	FiledAt   time.Time
}
