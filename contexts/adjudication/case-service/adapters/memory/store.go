package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/contexts/adjudication/case-service/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter for tests and local wiring. It also
// doubles as the document store and notification dispatcher so a module can
// run fully self-contained.
type Store struct {
	mu sync.Mutex

	cases     map[string]entities.Case
	protocols map[string]string
	sequences map[int]int
	history   map[string][]entities.HistoryRecord
	evidence  map[string][]entities.Evidence
	defenses  map[string][]entities.Defense
	appeals   map[string]entities.Appeal
	counters  map[string][]entities.CounterArgument
	documents map[string][]byte
	notices   []Notice
	outbox    map[string]outboxRecord
}

// Notice captures one dispatched notification for assertions.
type Notice struct {
	Event      string
	Recipients []string
	Payload    map[string]any
}

func NewStore() *Store {
	return &Store{
		cases:     make(map[string]entities.Case),
		protocols: make(map[string]string),
		sequences: make(map[int]int),
		history:   make(map[string][]entities.HistoryRecord),
		evidence:  make(map[string][]entities.Evidence),
		defenses:  make(map[string][]entities.Defense),
		appeals:   make(map[string]entities.Appeal),
		counters:  make(map[string][]entities.CounterArgument),
		documents: make(map[string][]byte),
		outbox:    make(map[string]outboxRecord),
	}
}

func (s *Store) CreateCase(_ context.Context, c entities.Case, opening entities.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.protocols[c.Protocol]; taken {
		return domainerrors.ErrProtocolTaken
	}
	s.cases[c.CaseID] = c
	s.protocols[c.Protocol] = c.CaseID
	s.history[c.CaseID] = append(s.history[c.CaseID], opening)
	return nil
}

func (s *Store) GetCase(_ context.Context, caseID string) (entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[strings.TrimSpace(caseID)]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return c, nil
}

func (s *Store) GetCaseByProtocol(_ context.Context, protocol string) (entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	caseID, ok := s.protocols[strings.TrimSpace(protocol)]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return s.cases[caseID], nil
}

func (s *Store) ListCasesByElection(_ context.Context, electionID string) ([]entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Case, 0)
	for _, c := range s.cases {
		if c.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListOverdueCandidates(_ context.Context, now time.Time) ([]entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Case, 0)
	for _, c := range s.cases {
		if c.Overdue || c.Status != entities.StatusUnderAnalysis {
			continue
		}
		if c.AdmissibilityDeadline != nil && now.UTC().After(*c.AdmissibilityDeadline) {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateCase(_ context.Context, c entities.Case, history []entities.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.CaseID]; !ok {
		return domainerrors.ErrCaseNotFound
	}
	s.cases[c.CaseID] = c
	s.history[c.CaseID] = append(s.history[c.CaseID], history...)
	return nil
}

func (s *Store) ListHistory(_ context.Context, caseID string) ([]entities.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.HistoryRecord(nil), s.history[strings.TrimSpace(caseID)]...), nil
}

func (s *Store) AppendEvidence(_ context.Context, evidence entities.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence[evidence.CaseID] = append(s.evidence[evidence.CaseID], evidence)
	return nil
}

func (s *Store) ListEvidence(_ context.Context, caseID string) ([]entities.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Evidence(nil), s.evidence[strings.TrimSpace(caseID)]...), nil
}

func (s *Store) AppendDefense(_ context.Context, defense entities.Defense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defenses[defense.CaseID] = append(s.defenses[defense.CaseID], defense)
	return nil
}

func (s *Store) ListDefenses(_ context.Context, caseID string) ([]entities.Defense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Defense(nil), s.defenses[strings.TrimSpace(caseID)]...), nil
}

func (s *Store) AppendAppeal(_ context.Context, appeal entities.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appeals[appeal.AppealID] = appeal
	return nil
}

func (s *Store) GetAppeal(_ context.Context, appealID string) (entities.Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appeal, ok := s.appeals[strings.TrimSpace(appealID)]
	if !ok {
		return entities.Appeal{}, domainerrors.ErrAppealNotFound
	}
	return appeal, nil
}

func (s *Store) ListAppeals(_ context.Context, caseID string) ([]entities.Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Appeal, 0)
	for _, appeal := range s.appeals {
		if appeal.CaseID == strings.TrimSpace(caseID) {
			items = append(items, appeal)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].FiledAt.Before(items[j].FiledAt)
	})
	return items, nil
}

func (s *Store) AppendCounterArgument(_ context.Context, counter entities.CounterArgument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter.AppealID] = append(s.counters[counter.AppealID], counter)
	return nil
}

func (s *Store) ListCounterArguments(_ context.Context, appealID string) ([]entities.CounterArgument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.CounterArgument(nil), s.counters[strings.TrimSpace(appealID)]...), nil
}

func (s *Store) NextProtocolNumber(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[year]++
	return s.sequences[year], nil
}

func (s *Store) StoreEvidence(_ context.Context, filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("mem://evidence/%s/%s", uuid.NewString(), strings.TrimSpace(filename))
	s.documents[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *Store) Notify(_ context.Context, event string, recipients []string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{
		Event:      event,
		Recipients: append([]string(nil), recipients...),
		Payload:    payload,
	})
}

func (s *Store) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
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
		return domainerrors.ErrCaseNotFound
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

var _ ports.CaseRepository = (*Store)(nil)
var _ ports.ProtocolSequencer = (*Store)(nil)
var _ ports.DocumentStore = (*Store)(nil)
var _ ports.NotificationDispatcher = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
