package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "pleito/contexts/electoral-process/ballot-ledger/application"
	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	domainerrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
	"pleito/contexts/electoral-process/ballot-ledger/ports"
	"pleito/internal/shared/deadline"
)

// CastVoteCommand is the write-model input for vote casting. ElectorID is
// the raw identifier from the identity provider; it is hashed before any
// persistence.
type CastVoteCommand struct {
	ElectionID string
	ElectorID  string
	Kind       entities.VoteKind
	SlateID    string
}

type CastVoteResult struct {
	Ballot  entities.Ballot
	Receipt string
}

// VoidBallotCommand is issued only by the case-to-tally bridge.
type VoidBallotCommand struct {
	BallotID     string
	ReasonCaseID string
}

// LedgerUseCase orchestrates ballot writes: voting-window and eligibility
// enforcement, the one-vote-per-elector invariant, receipt issuance, and
// the voidance operations applied by adjudication outcomes.
type LedgerUseCase struct {
	Ballots       ports.BallotRepository
	Elections     ports.ElectionRepository
	Eligibility   ports.EligibilityClient
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	ReceiptSecret string
	Logger        *slog.Logger
}

// CastVote validates and appends one ballot. Failures are synchronous and
// final: a duplicate vote is rejected, never queued or silently replayed.
func (uc LedgerUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	electorID := strings.TrimSpace(cmd.ElectorID)
	slateID := strings.TrimSpace(cmd.SlateID)

	if electionID == "" || electorID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidBallotInput
	}
	switch cmd.Kind {
	case entities.VoteKindSlate:
		if slateID == "" {
			return CastVoteResult{}, domainerrors.ErrInvalidBallotInput
		}
	case entities.VoteKindBlank, entities.VoteKindNull:
		if slateID != "" {
			return CastVoteResult{}, domainerrors.ErrInvalidBallotInput
		}
	default:
		// voided is never castable directly
		return CastVoteResult{}, domainerrors.ErrInvalidBallotInput
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if election.Phase != entities.PhaseVoting {
		return CastVoteResult{}, domainerrors.ErrElectionNotInVotingPhase
	}
	now := uc.now()
	if !deadline.WithinWindow(now, election.VotingStartsAt, election.VotingEndsAt) {
		return CastVoteResult{}, domainerrors.ErrVotingWindowClosed
	}

	if uc.Eligibility == nil {
		return CastVoteResult{}, domainerrors.ErrEligibilityUnavailable
	}
	eligible, err := uc.Eligibility.IsEligibleElector(ctx, electionID, electorID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !eligible {
		return CastVoteResult{}, domainerrors.ErrElectorNotEligible
	}

	if cmd.Kind == entities.VoteKindSlate {
		slate, err := uc.Elections.GetSlate(ctx, slateID)
		if err != nil {
			return CastVoteResult{}, err
		}
		if slate.ElectionID != electionID {
			return CastVoteResult{}, domainerrors.ErrSlateNotFound
		}
		if !slate.Votable() {
			return CastVoteResult{}, domainerrors.ErrSlateNotEligible
		}
	}

	electorKey := application.ElectorKey(electionID, electorID, uc.ReceiptSecret)
	if _, found, err := uc.Ballots.GetActiveBallotByElector(ctx, electionID, electorKey); err != nil {
		return CastVoteResult{}, err
	} else if found {
		return CastVoteResult{}, domainerrors.ErrDuplicateVote
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	receipt := application.ReceiptHash(electionID, electorKey, ballotID, uc.ReceiptSecret)
	ballot := entities.Ballot{
		BallotID:    ballotID,
		ElectionID:  electionID,
		ElectorKey:  electorKey,
		SlateID:     slateID,
		Kind:        cmd.Kind,
		CastAt:      now,
		ReceiptHash: receipt,
	}

	// The repository enforces the unique (election, elector) constraint for
	// non-voided ballots; a concurrent caster losing the race gets
	// ErrDuplicateVote here even after the pre-check above passed.
	if err := uc.Ballots.CreateBallot(ctx, ballot); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateVote) {
			logger.Warn("duplicate vote rejected",
				"event", "ledger_cast_duplicate_rejected",
				"module", "electoral-process/ballot-ledger",
				"layer", "application",
				"election_id", electionID,
			)
		}
		return CastVoteResult{}, err
	}

	if err := uc.appendBallotEvent(ctx, "ballot.cast", ballot, now, map[string]any{
		"actor":  electorKey,
		"action": "cast",
		"after":  string(ballot.Kind),
	}); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("ballot cast",
		"event", "ledger_ballot_cast",
		"module", "electoral-process/ballot-ledger",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"election_id", electionID,
		"vote_kind", string(ballot.Kind),
	)
	return CastVoteResult{Ballot: ballot, Receipt: receipt}, nil
}

// VoidBallot marks one ballot voided on behalf of an adjudication decision,
// preserving the original kind. The row is never removed.
func (uc LedgerUseCase) VoidBallot(ctx context.Context, cmd VoidBallotCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID := strings.TrimSpace(cmd.BallotID)
	caseID := strings.TrimSpace(cmd.ReasonCaseID)
	if ballotID == "" || caseID == "" {
		return entities.Ballot{}, domainerrors.ErrInvalidBallotInput
	}

	now := uc.now()
	current, err := uc.Ballots.GetBallot(ctx, ballotID)
	if err != nil {
		return entities.Ballot{}, err
	}
	if current.Voided() {
		return entities.Ballot{}, domainerrors.ErrBallotAlreadyVoided
	}

	voided, err := uc.Ballots.VoidBallot(ctx, ballotID, caseID, now)
	if err != nil {
		return entities.Ballot{}, err
	}
	if err := uc.appendBallotEvent(ctx, "ballot.voided", voided, now, map[string]any{
		"actor":   caseID,
		"action":  "void",
		"before":  string(current.Kind),
		"after":   string(entities.VoteKindVoided),
		"case_id": caseID,
	}); err != nil {
		return entities.Ballot{}, err
	}

	logger.Info("ballot voided",
		"event", "ledger_ballot_voided",
		"module", "electoral-process/ballot-ledger",
		"layer", "application",
		"ballot_id", voided.BallotID,
		"case_id", caseID,
	)
	return voided, nil
}

// VoidSlateBallots voids every non-voided ballot for a disqualified slate,
// restricted to ballots cast after castAfter unless the judgment ordered
// full voidance (nil castAfter).
func (uc LedgerUseCase) VoidSlateBallots(
	ctx context.Context,
	slateID string,
	castAfter *time.Time,
	reasonCaseID string,
) ([]entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	slateID = strings.TrimSpace(slateID)
	caseID := strings.TrimSpace(reasonCaseID)
	if slateID == "" || caseID == "" {
		return nil, domainerrors.ErrInvalidBallotInput
	}

	now := uc.now()
	voided, err := uc.Ballots.VoidSlateBallots(ctx, slateID, castAfter, caseID, now)
	if err != nil {
		return nil, err
	}
	for _, ballot := range voided {
		if err := uc.appendBallotEvent(ctx, "ballot.voided", ballot, now, map[string]any{
			"actor":    caseID,
			"action":   "void",
			"before":   string(ballot.OriginalKind),
			"after":    string(entities.VoteKindVoided),
			"case_id":  caseID,
			"slate_id": slateID,
		}); err != nil {
			return nil, err
		}
	}

	logger.Info("slate ballots voided",
		"event", "ledger_slate_ballots_voided",
		"module", "electoral-process/ballot-ledger",
		"layer", "application",
		"slate_id", slateID,
		"case_id", caseID,
		"voided_count", len(voided),
	)
	return voided, nil
}

// DisqualifySlate forces a slate to cancelled as ordered by a judgment.
func (uc LedgerUseCase) DisqualifySlate(ctx context.Context, slateID string, reasonCaseID string) (entities.Slate, error) {
	logger := application.ResolveLogger(uc.Logger)
	slateID = strings.TrimSpace(slateID)
	caseID := strings.TrimSpace(reasonCaseID)
	if slateID == "" || caseID == "" {
		return entities.Slate{}, domainerrors.ErrInvalidBallotInput
	}

	now := uc.now()
	current, err := uc.Elections.GetSlate(ctx, slateID)
	if err != nil {
		return entities.Slate{}, err
	}
	if current.Status == entities.SlateStatusCancelled {
		return current, nil
	}

	updated, err := uc.Elections.UpdateSlateStatus(ctx, slateID, entities.SlateStatusCancelled, now)
	if err != nil {
		return entities.Slate{}, err
	}
	if err := uc.appendSlateEvent(ctx, "slate.cancelled", updated, now, map[string]any{
		"actor":   caseID,
		"action":  "disqualify",
		"before":  string(current.Status),
		"after":   string(updated.Status),
		"case_id": caseID,
	}); err != nil {
		return entities.Slate{}, err
	}

	logger.Info("slate disqualified",
		"event", "ledger_slate_disqualified",
		"module", "electoral-process/ballot-ledger",
		"layer", "application",
		"slate_id", slateID,
		"case_id", caseID,
	)
	return updated, nil
}

func (uc LedgerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
