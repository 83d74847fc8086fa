package ports

import (
	"context"
	"time"

	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	"pleito/internal/shared/events"
)

// BallotSnapshot is a consistent read of the ledger: every ballot for the
// election as of TakenAt, including voided rows. Implementations must not
// interleave concurrent writes into one snapshot.
type BallotSnapshot struct {
	TakenAt time.Time
	Ballots []entities.BallotRecord
}

type LedgerSource interface {
	GetElectionInfo(ctx context.Context, electionID string) (entities.ElectionInfo, error)
	ListSlates(ctx context.Context, electionID string) ([]entities.SlateInfo, error)
	SnapshotBallots(ctx context.Context, electionID string) (BallotSnapshot, error)
}

type ResultRepository interface {
	CreateResult(ctx context.Context, result entities.Result) error
	GetResult(ctx context.Context, resultID string) (entities.Result, error)
	GetLatestResult(ctx context.Context, electionID string) (entities.Result, bool, error)
	ListResults(ctx context.Context, electionID string) ([]entities.Result, error)
	// InvalidatePartialResults flags every non-invalidated partial result of
	// the election and reports how many were touched. Final results are
	// never flagged here.
	InvalidatePartialResults(ctx context.Context, electionID string, caseID string, at time.Time) (int, error)
}

// CaseGuard answers whether any adjudication case can still alter the tally
// of the election. Final results must not close while it reports true.
type CaseGuard interface {
	HasTallyBlockingCases(ctx context.Context, electionID string) (bool, error)
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
