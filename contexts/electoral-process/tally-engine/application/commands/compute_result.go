package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pleito/contexts/electoral-process/tally-engine/application"
	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	domainerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
	"pleito/contexts/electoral-process/tally-engine/ports"
	"pleito/internal/shared/events"
)

type ComputeResultCommand struct {
	ElectionID string
	Kind       entities.ResultKind
}

type InvalidateResultsCommand struct {
	ElectionID   string
	ReasonCaseID string
}

// TallyUseCase produces Result snapshots. Partial results are advisory and
// recomputable at will; a final result additionally requires that no open
// adjudication case can still alter the count.
type TallyUseCase struct {
	Ledger  ports.LedgerSource
	Results ports.ResultRepository
	Cases   ports.CaseGuard
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc TallyUseCase) ComputeResult(ctx context.Context, cmd ComputeResultCommand) (entities.Result, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" {
		return entities.Result{}, domainerrors.ErrInvalidTallyInput
	}
	if cmd.Kind != entities.ResultKindPartial && cmd.Kind != entities.ResultKindFinal {
		return entities.Result{}, domainerrors.ErrInvalidTallyInput
	}

	election, err := uc.Ledger.GetElectionInfo(ctx, electionID)
	if err != nil {
		return entities.Result{}, err
	}
	if cmd.Kind == entities.ResultKindFinal {
		blocked, err := uc.Cases.HasTallyBlockingCases(ctx, electionID)
		if err != nil {
			return entities.Result{}, err
		}
		if blocked {
			logger.Warn("final result blocked by open adjudication",
				"event", "tally_final_blocked",
				"module", "electoral-process/tally-engine",
				"layer", "application",
				"election_id", electionID,
			)
			return entities.Result{}, domainerrors.ErrAdjudicationPending
		}
	}

	slates, err := uc.Ledger.ListSlates(ctx, electionID)
	if err != nil {
		return entities.Result{}, err
	}
	snapshot, err := uc.Ledger.SnapshotBallots(ctx, electionID)
	if err != nil {
		return entities.Result{}, err
	}

	result := entities.Tabulate(election, slates, snapshot.Ballots)
	result.Kind = cmd.Kind
	result.ComputedAt = uc.now()

	resultID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Result{}, err
	}
	result.ResultID = resultID
	if prior, found, err := uc.Results.GetLatestResult(ctx, electionID); err != nil {
		return entities.Result{}, err
	} else if found {
		result.SupersedesID = prior.ResultID
	}

	if err := uc.Results.CreateResult(ctx, result); err != nil {
		return entities.Result{}, err
	}
	if err := uc.appendResultEvent(ctx, "result.computed", result); err != nil {
		return entities.Result{}, err
	}

	logger.Info("result computed",
		"event", "tally_result_computed",
		"module", "electoral-process/tally-engine",
		"layer", "application",
		"result_id", result.ResultID,
		"election_id", electionID,
		"kind", string(result.Kind),
		"total_ballots", result.TotalBallots,
		"supersedes_id", result.SupersedesID,
	)
	return result, nil
}

// InvalidatePartialResults is invoked by the adjudication bridge after a
// judgment changes the ledger underneath previously computed snapshots.
func (uc TallyUseCase) InvalidatePartialResults(ctx context.Context, cmd InvalidateResultsCommand) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	caseID := strings.TrimSpace(cmd.ReasonCaseID)
	if electionID == "" || caseID == "" {
		return 0, domainerrors.ErrInvalidTallyInput
	}

	count, err := uc.Results.InvalidatePartialResults(ctx, electionID, caseID, uc.now())
	if err != nil {
		return 0, err
	}
	logger.Info("partial results invalidated",
		"event", "tally_partials_invalidated",
		"module", "electoral-process/tally-engine",
		"layer", "application",
		"election_id", electionID,
		"case_id", caseID,
		"invalidated_count", count,
	)
	return count, nil
}

func (uc TallyUseCase) appendResultEvent(ctx context.Context, eventType string, result entities.Result) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"result_id":     result.ResultID,
		"election_id":   result.ElectionID,
		"kind":          string(result.Kind),
		"total_ballots": result.TotalBallots,
		"occurred_at":   result.ComputedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "tally-engine",
		OccurredAt:    result.ComputedAt.UTC(),
		EntityType:    "result",
		EntityID:      result.ResultID,
		SchemaVersion: 1,
		PartitionKey:  result.ElectionID,
		Data:          payload,
	})
}

func (uc TallyUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
