package entities

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "in_progress"
	SessionClosed SessionStatus = "closed"
)

type DecisionType string

const (
	DecisionUnanimous DecisionType = "unanimous"
	DecisionMajority  DecisionType = "majority"
	DecisionTieBreak  DecisionType = "tie_break"
)

type VoteValue string

const (
	VoteUpheld          VoteValue = "upheld"
	VoteDismissed       VoteValue = "dismissed"
	VotePartiallyUpheld VoteValue = "partially_upheld"
	VoteAbstain         VoteValue = "abstain"
	VoteImpeded         VoteValue = "impeded"
)

// Judgment is one deliberation session over a case. Outcome and
// DecisionType are set only at closure and never change afterwards.
type Judgment struct {
	JudgmentID   string
	CaseID       string
	ElectionID   string
	CommitteeID  string
	Status       SessionStatus
	OpenedBy     string
	OpenedAt     time.Time
	ClosedAt     *time.Time
	Outcome      VoteValue
	DecisionType DecisionType
}

func (j Judgment) Closed() bool {
	return j.Status == SessionClosed
}

type CommitteeMember struct {
	MemberID    string
	CommitteeID string
	Active      bool
	Presiding   bool
}

// CommitteeVote is upserted while the session is open; after closure the
// recorded votes are immutable.
type CommitteeVote struct {
	VoteID        string
	JudgmentID    string
	MemberID      string
	Value         VoteValue
	Justification string
	TieBreaker    bool
	CastAt        time.Time
}

// Decision is the pure tally of a closed deliberation.
type Decision struct {
	Outcome      VoteValue
	DecisionType DecisionType
}

// Decide applies the closure algorithm to the cast votes. Abstentions and
// impeded members leave the denominator entirely. Ok is false when no
// outcome reaches unanimity or strict majority and no tie-break vote was
// cast, in which case the session must stay open.
func Decide(votes []CommitteeVote) (Decision, bool) {
	eligible := make([]CommitteeVote, 0, len(votes))
	for _, vote := range votes {
		if vote.Value == VoteAbstain || vote.Value == VoteImpeded {
			continue
		}
		eligible = append(eligible, vote)
	}
	if len(eligible) == 0 {
		return Decision{}, false
	}

	counts := make(map[VoteValue]int)
	for _, vote := range eligible {
		counts[vote.Value]++
	}
	var top VoteValue
	topCount := 0
	for value, count := range counts {
		if count > topCount {
			top = value
			topCount = count
		}
	}

	if topCount == len(eligible) {
		return Decision{Outcome: top, DecisionType: DecisionUnanimous}, true
	}
	if topCount*2 > len(eligible) {
		return Decision{Outcome: top, DecisionType: DecisionMajority}, true
	}
	for _, vote := range eligible {
		if vote.TieBreaker {
			return Decision{Outcome: vote.Value, DecisionType: DecisionTieBreak}, true
		}
	}
	return Decision{}, false
}
