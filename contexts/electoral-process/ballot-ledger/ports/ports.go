package ports

import (
	"context"
	"time"

	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	"pleito/internal/shared/events"
)

type BallotRepository interface {
	// CreateBallot inserts a new ballot. Implementations must reject a
	// second non-voided ballot for the same (election, elector key) with
	// ErrDuplicateVote, closing the check-then-insert race at the store.
	CreateBallot(ctx context.Context, ballot entities.Ballot) error
	GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error)
	GetActiveBallotByElector(ctx context.Context, electionID string, electorKey string) (entities.Ballot, bool, error)
	ListBallotsByElection(ctx context.Context, electionID string) ([]entities.Ballot, error)
	VoidBallot(ctx context.Context, ballotID string, reasonCaseID string, voidedAt time.Time) (entities.Ballot, error)
	// VoidSlateBallots voids every non-voided ballot referencing the slate,
	// limited to ballots cast after castAfter when non-nil.
	VoidSlateBallots(ctx context.Context, slateID string, castAfter *time.Time, reasonCaseID string, voidedAt time.Time) ([]entities.Ballot, error)
}

type ElectionRepository interface {
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	GetSlate(ctx context.Context, slateID string) (entities.Slate, error)
	UpdateSlateStatus(ctx context.Context, slateID string, status entities.SlateStatus, updatedAt time.Time) (entities.Slate, error)
}

// EligibilityClient is the identity/eligibility collaborator contract.
type EligibilityClient interface {
	IsEligibleElector(ctx context.Context, electionID string, electorID string) (bool, error)
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
