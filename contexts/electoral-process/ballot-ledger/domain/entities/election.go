package entities

import "time"

type ElectionPhase string

const (
	PhasePreparatory  ElectionPhase = "preparatory"
	PhaseRegistration ElectionPhase = "registration"
	PhaseImpugnation  ElectionPhase = "impugnation"
	PhaseCampaign     ElectionPhase = "campaign"
	PhaseVoting       ElectionPhase = "voting"
	PhaseTally        ElectionPhase = "tally"
	PhaseResult       ElectionPhase = "result"
	PhaseInauguration ElectionPhase = "inauguration"
)

type VotingMode string

const (
	ModeInPerson VotingMode = "in_person"
	ModeOnline   VotingMode = "online"
	ModeHybrid   VotingMode = "hybrid"
)

type Election struct {
	ElectionID       string
	Phase            ElectionPhase
	Mode             VotingMode
	VotingStartsAt   time.Time
	VotingEndsAt     time.Time
	SeatCount        int
	EligibleElectors int
}

type SlateStatus string

const (
	SlateStatusDraft            SlateStatus = "draft"
	SlateStatusPendingDocs      SlateStatus = "pending_docs"
	SlateStatusAwaitingAnalysis SlateStatus = "awaiting_analysis"
	SlateStatusAnalysis         SlateStatus = "analysis"
	SlateStatusApproved         SlateStatus = "approved"
	SlateStatusRejected         SlateStatus = "rejected"
	SlateStatusImpugned         SlateStatus = "impugned"
	SlateStatusAwaitingJudgment SlateStatus = "awaiting_judgment"
	SlateStatusRegistered       SlateStatus = "registered"
	SlateStatusCancelled        SlateStatus = "cancelled"
)

// Slate is a competing candidate ticket. BallotOrder is the inscription
// draw order and doubles as the deterministic tie-break key when two slates
// finish with the same vote count.
type Slate struct {
	SlateID     string
	ElectionID  string
	Number      int
	Name        string
	Status      SlateStatus
	BallotOrder int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Votable reports whether the slate may receive votes. Approval precedes
// formal registration in the lifecycle; both states accept votes.
func (s Slate) Votable() bool {
	return s.Status == SlateStatusRegistered || s.Status == SlateStatusApproved
}
