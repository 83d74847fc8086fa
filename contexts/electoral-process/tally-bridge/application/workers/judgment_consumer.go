package workers

import (
	"context"
	"log/slog"
	"time"

	application "pleito/contexts/electoral-process/tally-bridge/application"
	"pleito/contexts/electoral-process/tally-bridge/domain/entities"
	"pleito/contexts/electoral-process/tally-bridge/ports"
	"pleito/internal/shared/events"
)

const consumerName = "tally-bridge"

// JudgmentConsumer routes judgment.closed events into ledger and tally
// effects. An upheld case against a slate disqualifies it, voids its
// ballots and invalidates partial results; partially upheld slate cases and
// any non-dismissed case against a result only invalidate partials; member
// cases and dismissals leave the ledger and tally untouched.
type JudgmentConsumer struct {
	Dedup  ports.EventDedup
	Ledger ports.LedgerCommands
	Tally  ports.TallyCommands
	Logger *slog.Logger
}

func (c JudgmentConsumer) HandleEvent(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	if event.EventType != "judgment.closed" {
		return nil
	}

	reserved, err := c.Dedup.ReserveEvent(ctx, consumerName, event.EventID)
	if err != nil {
		return err
	}
	if !reserved {
		logger.Info("judgment event already applied",
			"event", "bridge_event_duplicate",
			"module", "electoral-process/tally-bridge",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	closed, err := entities.ParseJudgmentClosed(event.Data)
	if err != nil {
		// A malformed payload never becomes applicable; keep the
		// reservation so the poison event is not retried forever.
		logger.Error("judgment event rejected",
			"event", "bridge_event_malformed",
			"module", "electoral-process/tally-bridge",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	if err := c.apply(ctx, closed, event.OccurredAt); err != nil {
		if releaseErr := c.Dedup.ReleaseEvent(ctx, consumerName, event.EventID); releaseErr != nil {
			logger.Error("judgment event release failed",
				"event", "bridge_event_release_failed",
				"module", "electoral-process/tally-bridge",
				"layer", "worker",
				"event_id", event.EventID,
				"error", releaseErr.Error(),
			)
		}
		return err
	}

	logger.Info("judgment outcome applied",
		"event", "bridge_outcome_applied",
		"module", "electoral-process/tally-bridge",
		"layer", "worker",
		"event_id", event.EventID,
		"case_id", closed.CaseID,
		"election_id", closed.ElectionID,
		"outcome", closed.Outcome,
	)
	return nil
}

func (c JudgmentConsumer) apply(ctx context.Context, closed entities.JudgmentClosed, occurredAt time.Time) error {
	if closed.Outcome == entities.OutcomeDismissed {
		return nil
	}
	switch closed.SubjectType {
	case entities.SubjectSlate:
		if closed.Outcome == entities.OutcomeUpheld {
			if err := c.Ledger.DisqualifySlate(ctx, closed.SubjectID, closed.CaseID); err != nil {
				return err
			}
			if _, err := c.Ledger.VoidSlateBallots(ctx, closed.SubjectID, cutoff(closed, occurredAt), closed.CaseID); err != nil {
				return err
			}
		}
		_, err := c.Tally.InvalidatePartialResults(ctx, closed.ElectionID, closed.CaseID)
		return err
	case entities.SubjectResult:
		_, err := c.Tally.InvalidatePartialResults(ctx, closed.ElectionID, closed.CaseID)
		return err
	}
	// Member cases carry no ledger or tally effect.
	return nil
}

// cutoff picks the voidance boundary: every ballot under full voidance,
// otherwise only ballots cast after the decision's effective date. A
// payload without an effective date falls back to the event's occurrence
// time, so voiding never reaches further back than explicitly ordered.
func cutoff(closed entities.JudgmentClosed, occurredAt time.Time) *time.Time {
	if closed.FullVoidance {
		return nil
	}
	at := closed.EffectiveAt
	if at.IsZero() {
		at = occurredAt.UTC()
	}
	return &at
}
