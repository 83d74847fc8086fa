package tallyengine_test

import (
	"context"
	"errors"
	"testing"

	tallyengine "pleito/contexts/electoral-process/tally-engine"
	"pleito/contexts/electoral-process/tally-engine/application/commands"
	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	domainerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
)

func newTallyModule(t *testing.T) tallyengine.Module {
	t.Helper()
	module := tallyengine.NewInMemoryModule(nil)
	module.Store.SetElection(entities.ElectionInfo{
		ElectionID:       "election-1",
		SeatCount:        1,
		EligibleElectors: 300,
	})
	module.Store.AddSlate("election-1", entities.SlateInfo{SlateID: "a", Number: 10, Name: "Slate A", BallotOrder: 1})
	module.Store.AddSlate("election-1", entities.SlateInfo{SlateID: "b", Number: 20, Name: "Slate B", BallotOrder: 2})
	module.Store.AddBallots("election-1", "slate", "a", 120)
	module.Store.AddBallots("election-1", "slate", "b", 80)
	module.Store.AddBallots("election-1", "blank", "", 10)
	module.Store.AddBallots("election-1", "null", "", 5)
	return module
}

func TestComputePartialResultSupersedesPrior(t *testing.T) {
	module := newTallyModule(t)
	ctx := context.Background()

	first, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindPartial,
	})
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	if first.SupersedesID != "" {
		t.Fatalf("first result supersedes %q, want none", first.SupersedesID)
	}
	if first.Lines[0].SlateID != "a" || !first.Lines[0].Elected {
		t.Fatalf("expected slate a elected at rank 1, got %+v", first.Lines[0])
	}

	second, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindPartial,
	})
	if err != nil {
		t.Fatalf("ComputeResult second: %v", err)
	}
	if second.SupersedesID != first.ResultID {
		t.Fatalf("supersedes = %q, want %q", second.SupersedesID, first.ResultID)
	}

	stored, err := module.Handler.Results.GetResult(ctx, first.ResultID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if stored.TotalBallots != first.TotalBallots {
		t.Fatal("prior result must remain unchanged after recomputation")
	}
}

func TestFinalResultBlockedByOpenCase(t *testing.T) {
	module := newTallyModule(t)
	ctx := context.Background()
	module.Store.SetTallyBlocking("election-1", true)

	_, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindFinal,
	})
	if !errors.Is(err, domainerrors.ErrAdjudicationPending) {
		t.Fatalf("got %v, want ErrAdjudicationPending", err)
	}

	module.Store.SetTallyBlocking("election-1", false)
	result, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindFinal,
	})
	if err != nil {
		t.Fatalf("ComputeResult final: %v", err)
	}
	if result.Kind != entities.ResultKindFinal {
		t.Fatalf("kind = %s, want final", result.Kind)
	}
}

func TestComputeResultValidatesInput(t *testing.T) {
	module := newTallyModule(t)
	ctx := context.Background()

	if _, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       "weekly",
	}); !errors.Is(err, domainerrors.ErrInvalidTallyInput) {
		t.Fatalf("got %v, want ErrInvalidTallyInput", err)
	}
	if _, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "missing",
		Kind:       entities.ResultKindPartial,
	}); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("got %v, want ErrElectionNotFound", err)
	}
}

func TestInvalidatePartialResultsSkipsFinal(t *testing.T) {
	module := newTallyModule(t)
	ctx := context.Background()

	partial, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindPartial,
	})
	if err != nil {
		t.Fatalf("ComputeResult partial: %v", err)
	}
	final, err := module.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: "election-1",
		Kind:       entities.ResultKindFinal,
	})
	if err != nil {
		t.Fatalf("ComputeResult final: %v", err)
	}

	count, err := module.Tally.InvalidatePartialResults(ctx, commands.InvalidateResultsCommand{
		ElectionID:   "election-1",
		ReasonCaseID: "case-3",
	})
	if err != nil {
		t.Fatalf("InvalidatePartialResults: %v", err)
	}
	if count != 1 {
		t.Fatalf("invalidated %d results, want 1", count)
	}

	flagged, err := module.Handler.Results.GetResult(ctx, partial.ResultID)
	if err != nil {
		t.Fatalf("GetResult partial: %v", err)
	}
	if !flagged.Invalidated || flagged.InvalidatedByCaseID != "case-3" {
		t.Fatalf("partial result not flagged: %+v", flagged)
	}

	untouched, err := module.Handler.Results.GetResult(ctx, final.ResultID)
	if err != nil {
		t.Fatalf("GetResult final: %v", err)
	}
	if untouched.Invalidated {
		t.Fatal("final result must never be invalidated by the bridge")
	}
}
