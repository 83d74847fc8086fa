package ports

import (
	"context"
	"time"
)

// EventDedup gives the bridge exactly-once application over an at-least-once
// event feed. ReserveEvent returns false when the event was already applied;
// ReleaseEvent undoes a reservation whose downstream effects failed so the
// event can be retried.
type EventDedup interface {
	ReserveEvent(ctx context.Context, consumer string, eventID string) (bool, error)
	ReleaseEvent(ctx context.Context, consumer string, eventID string) error
}

// LedgerCommands is the slice of the ballot ledger the bridge drives.
type LedgerCommands interface {
	DisqualifySlate(ctx context.Context, slateID string, reasonCaseID string) error
	// VoidSlateBallots voids the slate's active ballots, all of them when
	// castAfter is nil, and returns how many were voided.
	VoidSlateBallots(ctx context.Context, slateID string, castAfter *time.Time, reasonCaseID string) (int, error)
}

// TallyCommands is the slice of the tally engine the bridge drives.
type TallyCommands interface {
	InvalidatePartialResults(ctx context.Context, electionID string, reasonCaseID string) (int, error)
}
