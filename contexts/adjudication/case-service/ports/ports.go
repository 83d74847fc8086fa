package ports

import (
	"context"
	"time"

	"pleito/contexts/adjudication/case-service/domain/entities"
	"pleito/internal/shared/events"
)

type CaseRepository interface {
	// CreateCase persists the case and its opening history record in one
	// transaction. A protocol collision returns ErrProtocolTaken.
	CreateCase(ctx context.Context, c entities.Case, opening entities.HistoryRecord) error
	GetCase(ctx context.Context, caseID string) (entities.Case, error)
	GetCaseByProtocol(ctx context.Context, protocol string) (entities.Case, error)
	ListCasesByElection(ctx context.Context, electionID string) ([]entities.Case, error)
	// ListOverdueCandidates returns non-overdue cases under analysis whose
	// admissibility deadline elapsed before now.
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]entities.Case, error)
	// UpdateCase persists the mutated case and appends every history record
	// in the same transaction; history is append-only.
	UpdateCase(ctx context.Context, c entities.Case, history []entities.HistoryRecord) error
	ListHistory(ctx context.Context, caseID string) ([]entities.HistoryRecord, error)

	AppendEvidence(ctx context.Context, evidence entities.Evidence) error
	ListEvidence(ctx context.Context, caseID string) ([]entities.Evidence, error)
	AppendDefense(ctx context.Context, defense entities.Defense) error
	ListDefenses(ctx context.Context, caseID string) ([]entities.Defense, error)
	AppendAppeal(ctx context.Context, appeal entities.Appeal) error
	GetAppeal(ctx context.Context, appealID string) (entities.Appeal, error)
	ListAppeals(ctx context.Context, caseID string) ([]entities.Appeal, error)
	AppendCounterArgument(ctx context.Context, counter entities.CounterArgument) error
	ListCounterArguments(ctx context.Context, appealID string) ([]entities.CounterArgument, error)
}

// ProtocolSequencer hands out the next number of the yearly protocol series.
type ProtocolSequencer interface {
	NextProtocolNumber(ctx context.Context, year int) (int, error)
}

// DocumentStore keeps evidence bytes; the case file stores only the
// returned reference.
type DocumentStore interface {
	StoreEvidence(ctx context.Context, filename string, data []byte) (string, error)
}

// NotificationDispatcher is fire-and-forget; delivery failures never block
// a case transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, event string, recipients []string, payload map[string]any)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}
