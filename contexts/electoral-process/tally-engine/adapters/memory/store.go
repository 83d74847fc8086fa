package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	domainerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
	"pleito/contexts/electoral-process/tally-engine/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter for tests and local wiring. The single
// mutex makes SnapshotBallots a consistent read: no concurrent AddBallot
// interleaves with an in-progress snapshot.
type Store struct {
	mu sync.Mutex

	elections map[string]entities.ElectionInfo
	slates    map[string][]entities.SlateInfo
	ballots   map[string][]entities.BallotRecord
	blocking  map[string]bool
	results   map[string]entities.Result
	outbox    map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		elections: make(map[string]entities.ElectionInfo),
		slates:    make(map[string][]entities.SlateInfo),
		ballots:   make(map[string][]entities.BallotRecord),
		blocking:  make(map[string]bool),
		results:   make(map[string]entities.Result),
		outbox:    make(map[string]outboxRecord),
	}
}

func (s *Store) SetElection(info entities.ElectionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(info.ElectionID)] = info
}

func (s *Store) AddSlate(electionID string, slate entities.SlateInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(electionID)
	s.slates[key] = append(s.slates[key], slate)
}

func (s *Store) AddBallots(electionID string, kind string, slateID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(electionID)
	for i := 0; i < count; i++ {
		s.ballots[key] = append(s.ballots[key], entities.BallotRecord{Kind: kind, SlateID: slateID})
	}
}

func (s *Store) SetTallyBlocking(electionID string, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocking[strings.TrimSpace(electionID)] = blocked
}

func (s *Store) GetElectionInfo(_ context.Context, electionID string) (entities.ElectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.ElectionInfo{}, domainerrors.ErrElectionNotFound
	}
	return info, nil
}

func (s *Store) ListSlates(_ context.Context, electionID string) ([]entities.SlateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]entities.SlateInfo(nil), s.slates[strings.TrimSpace(electionID)]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].BallotOrder < items[j].BallotOrder
	})
	return items, nil
}

func (s *Store) SnapshotBallots(_ context.Context, electionID string) (ports.BallotSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.BallotSnapshot{
		TakenAt: time.Now().UTC(),
		Ballots: append([]entities.BallotRecord(nil), s.ballots[strings.TrimSpace(electionID)]...),
	}, nil
}

func (s *Store) HasTallyBlockingCases(_ context.Context, electionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocking[strings.TrimSpace(electionID)], nil
}

func (s *Store) CreateResult(_ context.Context, result entities.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.ResultID]; exists {
		return domainerrors.ErrInvalidTallyInput
	}
	s.results[result.ResultID] = result
	return nil
}

func (s *Store) GetResult(_ context.Context, resultID string) (entities.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[strings.TrimSpace(resultID)]
	if !ok {
		return entities.Result{}, domainerrors.ErrResultNotFound
	}
	return result, nil
}

func (s *Store) GetLatestResult(_ context.Context, electionID string) (entities.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest entities.Result
	found := false
	for _, result := range s.results {
		if result.ElectionID != strings.TrimSpace(electionID) {
			continue
		}
		if !found || result.ComputedAt.After(latest.ComputedAt) {
			latest = result
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) ListResults(_ context.Context, electionID string) ([]entities.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Result, 0)
	for _, result := range s.results {
		if result.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, result)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ComputedAt.Before(items[j].ComputedAt)
	})
	return items, nil
}

func (s *Store) InvalidatePartialResults(
	_ context.Context,
	electionID string,
	caseID string,
	at time.Time,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	stamp := at.UTC()
	for id, result := range s.results {
		if result.ElectionID != strings.TrimSpace(electionID) {
			continue
		}
		if result.Kind != entities.ResultKindPartial || result.Invalidated {
			continue
		}
		result.Invalidated = true
		result.InvalidatedByCaseID = strings.TrimSpace(caseID)
		result.InvalidatedAt = &stamp
		s.results[id] = result
		count++
	}
	return count, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrResultNotFound
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.LedgerSource = (*Store)(nil)
var _ ports.ResultRepository = (*Store)(nil)
var _ ports.CaseGuard = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
