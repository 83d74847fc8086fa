package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "pleito/contexts/electoral-process/tally-engine/application"
	"pleito/contexts/electoral-process/tally-engine/ports"
	"pleito/internal/shared/events"
)

// OutboxRelay publishes persisted tally outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("tally outbox list failed",
			"event", "tally_outbox_list_failed",
			"module", "electoral-process/tally-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("tally outbox decode failed",
				"event", "tally_outbox_decode_failed",
				"module", "electoral-process/tally-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("tally outbox publish failed",
				"event", "tally_outbox_publish_failed",
				"module", "electoral-process/tally-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("tally outbox mark published failed",
				"event", "tally_outbox_mark_published_failed",
				"module", "electoral-process/tally-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("tally outbox relay cycle completed",
		"event", "tally_outbox_relay_completed",
		"module", "electoral-process/tally-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
