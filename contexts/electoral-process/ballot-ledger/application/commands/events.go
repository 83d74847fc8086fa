package commands

import (
	"context"
	"encoding/json"
	"time"

	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	"pleito/internal/shared/events"
)

// Ledger events are partitioned by election so election-scoped consumers
// (tally invalidation, audit) observe a stable order.
func (uc LedgerUseCase) appendBallotEvent(
	ctx context.Context,
	eventType string,
	ballot entities.Ballot,
	occurredAt time.Time,
	data map[string]any,
) error {
	return uc.appendEvent(ctx, eventType, "ballot", ballot.BallotID, ballot.ElectionID, occurredAt, data)
}

func (uc LedgerUseCase) appendSlateEvent(
	ctx context.Context,
	eventType string,
	slate entities.Slate,
	occurredAt time.Time,
	data map[string]any,
) error {
	return uc.appendEvent(ctx, eventType, "slate", slate.SlateID, slate.ElectionID, occurredAt, data)
}

func (uc LedgerUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	entityType string,
	entityID string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "ballot-ledger",
		OccurredAt:    occurredAt.UTC(),
		EntityType:    entityType,
		EntityID:      entityID,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	})
}
