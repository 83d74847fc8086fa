package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"pleito/contexts/electoral-process/tally-bridge/ports"
)

// Disqualification records one DisqualifySlate call.
type Disqualification struct {
	SlateID      string
	ReasonCaseID string
}

// Voidance records one VoidSlateBallots call.
type Voidance struct {
	SlateID      string
	CastAfter    *time.Time
	ReasonCaseID string
}

// Invalidation records one InvalidatePartialResults call.
type Invalidation struct {
	ElectionID   string
	ReasonCaseID string
}

// Store backs the bridge in tests: it deduplicates events and records the
// ledger and tally effects instead of applying them.
type Store struct {
	mu sync.Mutex

	reserved map[string]struct{}

	disqualifications []Disqualification
	voidances         []Voidance
	invalidations     []Invalidation

	// FailVoidance makes the next VoidSlateBallots call fail, for retry
	// tests.
	FailVoidance error
}

func NewStore() *Store {
	return &Store{reserved: make(map[string]struct{})}
}

func (s *Store) ReserveEvent(_ context.Context, consumer string, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dedupKey(consumer, eventID)
	if _, ok := s.reserved[key]; ok {
		return false, nil
	}
	s.reserved[key] = struct{}{}
	return true, nil
}

func (s *Store) ReleaseEvent(_ context.Context, consumer string, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, dedupKey(consumer, eventID))
	return nil
}

func (s *Store) DisqualifySlate(_ context.Context, slateID string, reasonCaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disqualifications = append(s.disqualifications, Disqualification{
		SlateID:      slateID,
		ReasonCaseID: reasonCaseID,
	})
	return nil
}

func (s *Store) VoidSlateBallots(_ context.Context, slateID string, castAfter *time.Time, reasonCaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailVoidance != nil {
		err := s.FailVoidance
		s.FailVoidance = nil
		return 0, err
	}
	s.voidances = append(s.voidances, Voidance{
		SlateID:      slateID,
		CastAfter:    castAfter,
		ReasonCaseID: reasonCaseID,
	})
	return len(s.voidances), nil
}

func (s *Store) InvalidatePartialResults(_ context.Context, electionID string, reasonCaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidations = append(s.invalidations, Invalidation{
		ElectionID:   electionID,
		ReasonCaseID: reasonCaseID,
	})
	return len(s.invalidations), nil
}

func (s *Store) Disqualifications() []Disqualification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Disqualification(nil), s.disqualifications...)
}

func (s *Store) Voidances() []Voidance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Voidance(nil), s.voidances...)
}

func (s *Store) Invalidations() []Invalidation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Invalidation(nil), s.invalidations...)
}

func dedupKey(consumer string, eventID string) string {
	return strings.TrimSpace(consumer) + "|" + strings.TrimSpace(eventID)
}

var _ ports.EventDedup = (*Store)(nil)
var _ ports.LedgerCommands = (*Store)(nil)
var _ ports.TallyCommands = (*Store)(nil)
