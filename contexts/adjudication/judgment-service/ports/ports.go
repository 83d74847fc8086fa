package ports

import (
	"context"
	"time"

	"pleito/contexts/adjudication/judgment-service/domain/entities"
	"pleito/internal/shared/events"
)

// CaseHistoryEntry mirrors one append-only case log record written during
// judgment closure.
type CaseHistoryEntry struct {
	HistoryID      string
	CaseID         string
	PreviousStatus string
	NewStatus      string
	Actor          string
	Reason         string
	OccurredAt     time.Time
}

// CaseClosure is the case-side effect of a closed judgment: the status
// transition, the outcome, the appeal window, and the history records.
type CaseClosure struct {
	CaseID         string
	JudgmentID     string
	Outcome        string
	AppealDeadline time.Time
	ClosedAt       time.Time
	History        []CaseHistoryEntry
}

type JudgmentRepository interface {
	// CreateSession persists a new open session. A second open session for
	// the same case returns ErrSessionAlreadyOpen.
	CreateSession(ctx context.Context, judgment entities.Judgment) error
	GetSession(ctx context.Context, judgmentID string) (entities.Judgment, error)
	GetSessionByCase(ctx context.Context, caseID string) (entities.Judgment, bool, error)
	// UpsertVote replaces the member's previous vote while the session is
	// open.
	UpsertVote(ctx context.Context, vote entities.CommitteeVote) error
	ListVotes(ctx context.Context, judgmentID string) ([]entities.CommitteeVote, error)
	// CloseJudgment persists the closed judgment, applies the case
	// transition with its history, and queues the judgment.closed envelope,
	// all in one transaction. A concurrent closer loses with
	// ErrSessionClosed.
	CloseJudgment(ctx context.Context, judgment entities.Judgment, closure CaseClosure, envelope events.Envelope) error
}

// CaseDocket is the read contract against the case module: enough to admit
// a case to deliberation and to address the closure effects.
type CaseDocket struct {
	CaseID      string
	ElectionID  string
	SubjectType string
	SubjectID   string
	Status      string
}

type CaseReader interface {
	GetCaseDocket(ctx context.Context, caseID string) (CaseDocket, error)
}

type MemberDirectory interface {
	GetCommitteeMember(ctx context.Context, committeeID string, memberID string) (entities.CommitteeMember, error)
}

// CredentialClient is the identity-provider contract for member standing.
type CredentialClient interface {
	HasActiveCredential(ctx context.Context, memberID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
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
