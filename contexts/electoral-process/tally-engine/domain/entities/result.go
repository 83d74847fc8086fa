package entities

import (
	"math"
	"sort"
	"time"
)

type ResultKind string

const (
	ResultKindPartial ResultKind = "partial"
	ResultKindFinal   ResultKind = "final"
)

// ElectionInfo is the projection of the election row the tally needs.
type ElectionInfo struct {
	ElectionID       string
	SeatCount        int
	EligibleElectors int
}

// SlateInfo carries the slate attributes that feed ranking and display.
// BallotOrder is the registration order used as the deterministic tie-break.
type SlateInfo struct {
	SlateID     string
	Number      int
	Name        string
	BallotOrder int
}

// BallotRecord is one ledger row as seen by the tally snapshot.
type BallotRecord struct {
	Kind    string
	SlateID string
}

type ResultLine struct {
	SlateID     string
	SlateNumber int
	SlateName   string
	BallotOrder int
	Votes       int
	Percentage  float64
	Rank        int
	Elected     bool
}

// Result is an immutable tally snapshot. A later computation supersedes it
// via SupersedesID; the bridge may mark a partial result invalidated, which
// is the only post-creation flag ever set.
type Result struct {
	ResultID            string
	ElectionID          string
	Kind                ResultKind
	ComputedAt          time.Time
	EligibleElectors    int
	TotalBallots        int
	Voters              int
	SlateVotes          int
	BlankVotes          int
	NullVotes           int
	VoidedBallots       int
	ParticipationPct    float64
	AbstentionPct       float64
	Lines               []ResultLine
	SupersedesID        string
	Invalidated         bool
	InvalidatedByCaseID string
	InvalidatedAt       *time.Time
}

const (
	ballotKindSlate  = "slate"
	ballotKindBlank  = "blank"
	ballotKindNull   = "null"
	ballotKindVoided = "voided"
)

// Tabulate is the pure counting core. It partitions ballots by kind, scores
// each slate against the valid-vote base (slate + blank votes), ranks
// descending by count with registration order breaking ties, and flags the
// top slates elected up to the seat count. Voided and null ballots stay in
// the totals but never enter the percentage base.
func Tabulate(election ElectionInfo, slates []SlateInfo, ballots []BallotRecord) Result {
	counts := make(map[string]int, len(slates))
	result := Result{
		ElectionID:       election.ElectionID,
		EligibleElectors: election.EligibleElectors,
		TotalBallots:     len(ballots),
	}
	for _, ballot := range ballots {
		switch ballot.Kind {
		case ballotKindSlate:
			counts[ballot.SlateID]++
			result.SlateVotes++
		case ballotKindBlank:
			result.BlankVotes++
		case ballotKindNull:
			result.NullVotes++
		case ballotKindVoided:
			result.VoidedBallots++
		}
	}
	result.Voters = result.TotalBallots - result.VoidedBallots

	base := result.SlateVotes + result.BlankVotes
	lines := make([]ResultLine, 0, len(slates))
	for _, slate := range slates {
		lines = append(lines, ResultLine{
			SlateID:     slate.SlateID,
			SlateNumber: slate.Number,
			SlateName:   slate.Name,
			BallotOrder: slate.BallotOrder,
			Votes:       counts[slate.SlateID],
			Percentage:  percentage(counts[slate.SlateID], base),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Votes != lines[j].Votes {
			return lines[i].Votes > lines[j].Votes
		}
		return lines[i].BallotOrder < lines[j].BallotOrder
	})
	seats := election.SeatCount
	if seats <= 0 {
		seats = 1
	}
	for i := range lines {
		lines[i].Rank = i + 1
		lines[i].Elected = i < seats && lines[i].Votes > 0
	}
	result.Lines = lines

	result.ParticipationPct = percentage(result.Voters, election.EligibleElectors)
	if election.EligibleElectors > 0 {
		result.AbstentionPct = roundHalfUp(100 - result.ParticipationPct)
	}
	return result
}

// BlankPercentage reports the blank share over the same valid-vote base used
// for slate percentages, so slate shares plus blank share close to 100.
func (r Result) BlankPercentage() float64 {
	return percentage(r.BlankVotes, r.SlateVotes+r.BlankVotes)
}

func percentage(part int, base int) float64 {
	if base <= 0 {
		return 0
	}
	return roundHalfUp(float64(part) / float64(base) * 100)
}

// roundHalfUp rounds to two decimals, halves away from zero.
func roundHalfUp(v float64) float64 {
	return math.Round(v*100) / 100
}
