package messaging

import (
	"context"
	"log/slog"
	"sync"

	"pleito/internal/shared/events"
)

// subscriptionBuffer bounds how far a consumer may lag before publishes
// to it are dropped instead of blocking the outbox relays.
const subscriptionBuffer = 128

type subscription struct {
	group string
	ch    chan events.Envelope
}

// Kafka is the broker adapter behind the EventPublisher and Subscriber
// ports. The outbox relays publish judgment, case, ballot and tally events
// through it, and the worker's judgment.closed subscription consumes from
// it. The current transport is in-process fan-out; the broker endpoint
// list is accepted so the deployment wiring stays stable when an external
// broker replaces it.
type Kafka struct {
	mu     sync.RWMutex
	topics map[string][]*subscription
	logger *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		topics: make(map[string][]*subscription),
		logger: logger,
	}, nil
}

// Publish fans the envelope out to every subscription on the topic. A
// full subscription drops the envelope rather than stalling the relay;
// dedup on the consumer side keeps redelivery safe.
func (k *Kafka) Publish(ctx context.Context, topic string, event events.Envelope) error {
	k.mu.RLock()
	subs := append([]*subscription(nil), k.topics[topic]...)
	k.mu.RUnlock()

	delivered, dropped := 0, 0
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
			delivered++
		default:
			dropped++
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "bus_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"delivered", delivered,
			"dropped", dropped,
		)
	}
	return nil
}

// Subscribe attaches a handler to the topic until ctx is cancelled.
// Handler errors are logged and the loop moves on; retry is the
// publisher's concern via the outbox, not the bus's.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	sub := &subscription{
		group: consumerGroup,
		ch:    make(chan events.Envelope, subscriptionBuffer),
	}

	k.mu.Lock()
	k.topics[topic] = append(k.topics[topic], sub)
	k.mu.Unlock()

	go k.consume(ctx, topic, sub, handler)
	return nil
}

func (k *Kafka) consume(
	ctx context.Context,
	topic string,
	sub *subscription,
	handler func(context.Context, events.Envelope) error,
) {
	for {
		select {
		case <-ctx.Done():
			k.detach(topic, sub)
			return
		case event := <-sub.ch:
			if err := handler(ctx, event); err != nil && k.logger != nil {
				k.logger.Error("consumer handler failed",
					"event", "bus_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", sub.group,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}
}

func (k *Kafka) detach(topic string, target *subscription) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.topics[topic]
	if len(items) == 0 {
		return
	}
	kept := items[:0]
	for _, item := range items {
		if item != target {
			kept = append(kept, item)
		}
	}
	k.topics[topic] = kept
}
