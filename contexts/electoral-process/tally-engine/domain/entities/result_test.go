package entities_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pleito/contexts/electoral-process/tally-engine/domain/entities"
)

func ballots(kind string, slateID string, count int) []entities.BallotRecord {
	items := make([]entities.BallotRecord, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, entities.BallotRecord{Kind: kind, SlateID: slateID})
	}
	return items
}

func TestTabulateWorkedExample(t *testing.T) {
	election := entities.ElectionInfo{ElectionID: "e1", SeatCount: 1, EligibleElectors: 300}
	slates := []entities.SlateInfo{
		{SlateID: "a", Number: 10, Name: "Slate A", BallotOrder: 1},
		{SlateID: "b", Number: 20, Name: "Slate B", BallotOrder: 2},
	}
	var records []entities.BallotRecord
	records = append(records, ballots("slate", "a", 120)...)
	records = append(records, ballots("slate", "b", 80)...)
	records = append(records, ballots("blank", "", 10)...)
	records = append(records, ballots("null", "", 5)...)

	result := entities.Tabulate(election, slates, records)

	if result.TotalBallots != 215 || result.Voters != 215 {
		t.Fatalf("totals = %d/%d, want 215/215", result.TotalBallots, result.Voters)
	}
	if result.SlateVotes != 200 || result.BlankVotes != 10 || result.NullVotes != 5 {
		t.Fatalf("partition = %d/%d/%d, want 200/10/5", result.SlateVotes, result.BlankVotes, result.NullVotes)
	}
	if result.ParticipationPct != 71.67 {
		t.Fatalf("participation = %.2f, want 71.67", result.ParticipationPct)
	}
	if result.AbstentionPct != 28.33 {
		t.Fatalf("abstention = %.2f, want 28.33", result.AbstentionPct)
	}
	if got := result.BlankPercentage(); got != 4.76 {
		t.Fatalf("blank pct = %.2f, want 4.76", got)
	}

	want := []entities.ResultLine{
		{SlateID: "a", SlateNumber: 10, SlateName: "Slate A", BallotOrder: 1, Votes: 120, Percentage: 57.14, Rank: 1, Elected: true},
		{SlateID: "b", SlateNumber: 20, SlateName: "Slate B", BallotOrder: 2, Votes: 80, Percentage: 38.10, Rank: 2, Elected: false},
	}
	if diff := cmp.Diff(want, result.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestTabulateConservesBallotTotals(t *testing.T) {
	election := entities.ElectionInfo{ElectionID: "e1", SeatCount: 1, EligibleElectors: 100}
	slates := []entities.SlateInfo{{SlateID: "a", BallotOrder: 1}}
	var records []entities.BallotRecord
	records = append(records, ballots("slate", "a", 30)...)
	records = append(records, ballots("blank", "", 7)...)
	records = append(records, ballots("null", "", 3)...)
	records = append(records, ballots("voided", "a", 4)...)

	result := entities.Tabulate(election, slates, records)

	sum := result.SlateVotes + result.BlankVotes + result.NullVotes + result.VoidedBallots
	if sum != result.TotalBallots {
		t.Fatalf("conservation broken: %d != %d", sum, result.TotalBallots)
	}
	if result.Voters != 40 {
		t.Fatalf("voters = %d, want 40 (voided excluded)", result.Voters)
	}
}

func TestTabulateTieBreaksByRegistrationOrder(t *testing.T) {
	election := entities.ElectionInfo{ElectionID: "e1", SeatCount: 1, EligibleElectors: 100}
	slates := []entities.SlateInfo{
		{SlateID: "late", Number: 30, BallotOrder: 3},
		{SlateID: "early", Number: 10, BallotOrder: 1},
		{SlateID: "mid", Number: 20, BallotOrder: 2},
	}
	var records []entities.BallotRecord
	records = append(records, ballots("slate", "late", 50)...)
	records = append(records, ballots("slate", "early", 50)...)
	records = append(records, ballots("slate", "mid", 20)...)

	first := entities.Tabulate(election, slates, records)
	second := entities.Tabulate(election, slates, records)

	if first.Lines[0].SlateID != "early" {
		t.Fatalf("rank 1 = %s, want early inscription to win the tie", first.Lines[0].SlateID)
	}
	if !first.Lines[0].Elected || first.Lines[1].Elected {
		t.Fatal("only the rank-1 slate is elected with one seat")
	}
	if diff := cmp.Diff(first.Lines, second.Lines); diff != "" {
		t.Fatalf("ranking is not deterministic:\n%s", diff)
	}
}

func TestTabulateEmptyLedger(t *testing.T) {
	election := entities.ElectionInfo{ElectionID: "e1", SeatCount: 1, EligibleElectors: 100}
	slates := []entities.SlateInfo{{SlateID: "a", BallotOrder: 1}}

	result := entities.Tabulate(election, slates, nil)

	if result.TotalBallots != 0 || result.ParticipationPct != 0 {
		t.Fatalf("unexpected totals for empty ledger: %+v", result)
	}
	if result.Lines[0].Percentage != 0 {
		t.Fatalf("percentage = %.2f, want 0 on empty base", result.Lines[0].Percentage)
	}
	if result.Lines[0].Elected {
		t.Fatal("a slate with zero votes must not be marked elected")
	}
}
