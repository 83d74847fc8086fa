package ballotledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ballotledger "pleito/contexts/electoral-process/ballot-ledger"
	"pleito/contexts/electoral-process/ballot-ledger/application/commands"
	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	domainerrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
)

const testSecret = "test-receipt-secret"

func newVotingModule(t *testing.T) ballotledger.Module {
	t.Helper()
	module := ballotledger.NewInMemoryModule(nil, testSecret, nil)
	now := time.Now().UTC()
	module.Store.SetElection(entities.Election{
		ElectionID:       "election-1",
		Phase:            entities.PhaseVoting,
		Mode:             entities.ModeOnline,
		VotingStartsAt:   now.Add(-time.Hour),
		VotingEndsAt:     now.Add(time.Hour),
		SeatCount:        5,
		EligibleElectors: 300,
	})
	module.Store.SetSlate(entities.Slate{
		SlateID:     "slate-a",
		ElectionID:  "election-1",
		Number:      10,
		Name:        "Renovation",
		Status:      entities.SlateStatusRegistered,
		BallotOrder: 1,
	})
	module.Store.SetSlate(entities.Slate{
		SlateID:     "slate-draft",
		ElectionID:  "election-1",
		Number:      20,
		Name:        "Unfinished",
		Status:      entities.SlateStatusDraft,
		BallotOrder: 2,
	})
	module.Store.SetEligible("election-1", "elector-1", true)
	module.Store.SetEligible("election-1", "elector-2", true)
	return module
}

func TestCastVoteIssuesVerifiableReceipt(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	result, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	})
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if result.Receipt == "" {
		t.Fatal("expected a receipt")
	}
	if result.Ballot.ElectorKey == "elector-1" {
		t.Fatal("elector identifier must not be stored raw")
	}

	verification, err := module.Handler.Receipts.VerifyReceipt(ctx, "election-1", "elector-1", result.Receipt)
	if err != nil {
		t.Fatalf("VerifyReceipt: %v", err)
	}
	if !verification.Included {
		t.Fatal("expected receipt to verify as included")
	}

	wrong, err := module.Handler.Receipts.VerifyReceipt(ctx, "election-1", "elector-1", "forged-receipt")
	if err != nil {
		t.Fatalf("VerifyReceipt forged: %v", err)
	}
	if wrong.Included {
		t.Fatal("forged receipt must not verify")
	}
}

func TestCastVoteValidation(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  commands.CastVoteCommand
		want error
	}{
		{
			name: "missing election",
			cmd:  commands.CastVoteCommand{ElectorID: "elector-1", Kind: entities.VoteKindBlank},
			want: domainerrors.ErrInvalidBallotInput,
		},
		{
			name: "slate vote without slate",
			cmd:  commands.CastVoteCommand{ElectionID: "election-1", ElectorID: "elector-1", Kind: entities.VoteKindSlate},
			want: domainerrors.ErrInvalidBallotInput,
		},
		{
			name: "blank vote with slate",
			cmd: commands.CastVoteCommand{
				ElectionID: "election-1", ElectorID: "elector-1",
				Kind: entities.VoteKindBlank, SlateID: "slate-a",
			},
			want: domainerrors.ErrInvalidBallotInput,
		},
		{
			name: "voided kind not castable",
			cmd:  commands.CastVoteCommand{ElectionID: "election-1", ElectorID: "elector-1", Kind: entities.VoteKindVoided},
			want: domainerrors.ErrInvalidBallotInput,
		},
		{
			name: "unknown election",
			cmd:  commands.CastVoteCommand{ElectionID: "missing", ElectorID: "elector-1", Kind: entities.VoteKindBlank},
			want: domainerrors.ErrElectionNotFound,
		},
		{
			name: "ineligible elector",
			cmd:  commands.CastVoteCommand{ElectionID: "election-1", ElectorID: "stranger", Kind: entities.VoteKindBlank},
			want: domainerrors.ErrElectorNotEligible,
		},
		{
			name: "unregistered slate",
			cmd: commands.CastVoteCommand{
				ElectionID: "election-1", ElectorID: "elector-1",
				Kind: entities.VoteKindSlate, SlateID: "slate-draft",
			},
			want: domainerrors.ErrSlateNotEligible,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := module.Ledger.CastVote(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCastVoteOutsideWindowRejected(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()
	now := time.Now().UTC()

	module.Store.SetElection(entities.Election{
		ElectionID:     "election-closed",
		Phase:          entities.PhaseVoting,
		Mode:           entities.ModeOnline,
		VotingStartsAt: now.Add(-3 * time.Hour),
		VotingEndsAt:   now.Add(-time.Hour),
	})
	module.Store.SetEligible("election-closed", "elector-1", true)

	_, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-closed",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindBlank,
	})
	if !errors.Is(err, domainerrors.ErrVotingWindowClosed) {
		t.Fatalf("got %v, want ErrVotingWindowClosed", err)
	}

	module.Store.SetElection(entities.Election{
		ElectionID:     "election-early",
		Phase:          entities.PhaseRegistration,
		Mode:           entities.ModeOnline,
		VotingStartsAt: now.Add(-time.Hour),
		VotingEndsAt:   now.Add(time.Hour),
	})
	module.Store.SetEligible("election-early", "elector-1", true)

	_, err = module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-early",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindBlank,
	})
	if !errors.Is(err, domainerrors.ErrElectionNotInVotingPhase) {
		t.Fatalf("got %v, want ErrElectionNotInVotingPhase", err)
	}
}

func TestSecondVoteBySameElectorRejected(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	if _, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	}); err != nil {
		t.Fatalf("first CastVote: %v", err)
	}

	_, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindBlank,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("got %v, want ErrDuplicateVote", err)
	}
}

func TestConcurrentCastsAdmitExactlyOneBallot(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = module.Ledger.CastVote(ctx, commands.CastVoteCommand{
				ElectionID: "election-1",
				ElectorID:  "elector-1",
				Kind:       entities.VoteKindBlank,
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domainerrors.ErrDuplicateVote):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted %d ballots, want exactly 1", accepted)
	}
}

func TestVoidBallotPreservesOriginalKind(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	result, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	})
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}

	voided, err := module.Ledger.VoidBallot(ctx, commands.VoidBallotCommand{
		BallotID:     result.Ballot.BallotID,
		ReasonCaseID: "case-9",
	})
	if err != nil {
		t.Fatalf("VoidBallot: %v", err)
	}
	if voided.Kind != entities.VoteKindVoided {
		t.Fatalf("kind = %s, want voided", voided.Kind)
	}
	if voided.OriginalKind != entities.VoteKindSlate {
		t.Fatalf("original kind = %s, want slate", voided.OriginalKind)
	}
	if voided.VoidedByCaseID != "case-9" {
		t.Fatalf("voided_by_case = %s, want case-9", voided.VoidedByCaseID)
	}

	if _, err := module.Ledger.VoidBallot(ctx, commands.VoidBallotCommand{
		BallotID:     result.Ballot.BallotID,
		ReasonCaseID: "case-9",
	}); !errors.Is(err, domainerrors.ErrBallotAlreadyVoided) {
		t.Fatalf("got %v, want ErrBallotAlreadyVoided", err)
	}
}

func TestVoidedElectorMayVoteAgain(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	first, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	})
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if _, err := module.Ledger.VoidBallot(ctx, commands.VoidBallotCommand{
		BallotID:     first.Ballot.BallotID,
		ReasonCaseID: "case-1",
	}); err != nil {
		t.Fatalf("VoidBallot: %v", err)
	}

	if _, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindBlank,
	}); err != nil {
		t.Fatalf("recast after voidance: %v", err)
	}
}

func TestVoidSlateBallotsHonorsCastAfterCutoff(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	early, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	})
	if err != nil {
		t.Fatalf("CastVote early: %v", err)
	}
	cutoff := early.Ballot.CastAt
	time.Sleep(2 * time.Millisecond)
	late, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-2",
		Kind:       entities.VoteKindSlate,
		SlateID:    "slate-a",
	})
	if err != nil {
		t.Fatalf("CastVote late: %v", err)
	}

	voided, err := module.Ledger.VoidSlateBallots(ctx, "slate-a", &cutoff, "case-5")
	if err != nil {
		t.Fatalf("VoidSlateBallots: %v", err)
	}
	if len(voided) != 1 {
		t.Fatalf("voided %d ballots, want 1", len(voided))
	}
	if voided[0].BallotID != late.Ballot.BallotID {
		t.Fatalf("voided ballot %s, want the one cast after the cutoff", voided[0].BallotID)
	}

	remaining, err := module.Store.GetBallot(ctx, early.Ballot.BallotID)
	if err != nil {
		t.Fatalf("GetBallot: %v", err)
	}
	if remaining.Voided() {
		t.Fatal("ballot cast before the cutoff must stay valid")
	}
}

func TestDisqualifySlateIsIdempotent(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	slate, err := module.Ledger.DisqualifySlate(ctx, "slate-a", "case-7")
	if err != nil {
		t.Fatalf("DisqualifySlate: %v", err)
	}
	if slate.Status != entities.SlateStatusCancelled {
		t.Fatalf("status = %s, want cancelled", slate.Status)
	}

	again, err := module.Ledger.DisqualifySlate(ctx, "slate-a", "case-7")
	if err != nil {
		t.Fatalf("DisqualifySlate repeat: %v", err)
	}
	if again.Status != entities.SlateStatusCancelled {
		t.Fatalf("status = %s, want cancelled", again.Status)
	}
}

func TestCastVoteAppendsOutboxEvent(t *testing.T) {
	module := newVotingModule(t)
	ctx := context.Background()

	if _, err := module.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: "election-1",
		ElectorID:  "elector-1",
		Kind:       entities.VoteKindBlank,
	}); err != nil {
		t.Fatalf("CastVote: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending outbox rows = %d, want 1", len(pending))
	}
	if pending[0].EventType != "ballot.cast" {
		t.Fatalf("event type = %s, want ballot.cast", pending[0].EventType)
	}
	if pending[0].PartitionKey != "election-1" {
		t.Fatalf("partition key = %s, want election-1", pending[0].PartitionKey)
	}
}
