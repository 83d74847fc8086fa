package entities

import "time"

type VoteKind string

const (
	VoteKindSlate  VoteKind = "slate"
	VoteKindBlank  VoteKind = "blank"
	VoteKindNull   VoteKind = "null"
	VoteKindVoided VoteKind = "voided"
)

// Ballot is one cast vote. ElectorKey is a one-way hash of the elector
// identity; the raw identifier is never persisted. A ballot transitions to
// voided only by an adjudication decision and is never deleted; the
// pre-voidance kind stays in OriginalKind for audit.
type Ballot struct {
	BallotID       string
	ElectionID     string
	ElectorKey     string
	SlateID        string // empty for blank/null votes
	Kind           VoteKind
	OriginalKind   VoteKind
	CastAt         time.Time
	ReceiptHash    string
	VoidedByCaseID string
	VoidedAt       *time.Time
}

func (b Ballot) Voided() bool {
	return b.Kind == VoteKindVoided
}
