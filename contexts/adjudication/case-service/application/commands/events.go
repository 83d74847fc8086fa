package commands

import (
	"context"
	"encoding/json"
	"time"

	"pleito/contexts/adjudication/case-service/domain/entities"
	"pleito/internal/shared/events"
)

// appendAuditEvent queues the {actor, action, before, after} audit envelope
// for a transition. Events partition by election so downstream consumers
// see case activity in order per election.
func (uc CaseUseCase) appendAuditEvent(
	ctx context.Context,
	eventType string,
	c entities.Case,
	record entities.HistoryRecord,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"actor":       record.Actor,
		"action":      eventType,
		"entity":      "adjudication_case",
		"case_id":     c.CaseID,
		"protocol":    c.Protocol,
		"before":      string(record.PreviousStatus),
		"after":       string(record.NewStatus),
		"reason":      record.Reason,
		"occurred_at": record.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "case-service",
		OccurredAt:    record.OccurredAt.UTC(),
		EntityType:    "adjudication_case",
		EntityID:      c.CaseID,
		SchemaVersion: 1,
		PartitionKey:  c.ElectionID,
		Data:          payload,
	})
}

// notify is fire-and-forget: a nil dispatcher or a slow consumer never
// blocks or fails the transition that triggered it.
func (uc CaseUseCase) notify(ctx context.Context, event string, recipients []string, payload map[string]any) {
	if uc.Notifier == nil {
		return
	}
	uc.Notifier.Notify(ctx, event, recipients, payload)
}
