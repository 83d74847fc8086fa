package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	domainerrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
	"pleito/contexts/electoral-process/ballot-ledger/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter used by tests and local wiring. One mutex
// guards every map, so check-then-insert sequences are atomic and the
// duplicate-vote invariant holds under concurrent callers.
type Store struct {
	mu sync.Mutex

	ballots   map[string]entities.Ballot
	elections map[string]entities.Election
	slates    map[string]entities.Slate
	eligible  map[string]bool
	outbox    map[string]outboxRecord
}

func NewStore(seed []entities.Ballot) *Store {
	ballots := make(map[string]entities.Ballot, len(seed))
	for _, ballot := range seed {
		ballots[ballot.BallotID] = ballot
	}
	return &Store{
		ballots:   ballots,
		elections: make(map[string]entities.Election),
		slates:    make(map[string]entities.Slate),
		eligible:  make(map[string]bool),
		outbox:    make(map[string]outboxRecord),
	}
}

func (s *Store) SetElection(election entities.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
}

func (s *Store) SetSlate(slate entities.Slate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slates[strings.TrimSpace(slate.SlateID)] = slate
}

func (s *Store) SetEligible(electionID string, electorID string, eligible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eligible[eligibilityKey(electionID, electorID)] = eligible
}

func (s *Store) CreateBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ballots {
		if existing.ElectionID == ballot.ElectionID &&
			existing.ElectorKey == ballot.ElectorKey &&
			!existing.Voided() {
			return domainerrors.ErrDuplicateVote
		}
	}
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
	return nil
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) GetActiveBallotByElector(
	_ context.Context,
	electionID string,
	electorKey string,
) (entities.Ballot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ballot := range s.ballots {
		if ballot.ElectionID == strings.TrimSpace(electionID) &&
			ballot.ElectorKey == strings.TrimSpace(electorKey) &&
			!ballot.Voided() {
			return ballot, true, nil
		}
	}
	return entities.Ballot{}, false, nil
}

func (s *Store) ListBallotsByElection(_ context.Context, electionID string) ([]entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Ballot, 0)
	for _, ballot := range s.ballots {
		if ballot.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, ballot)
		}
	}
	sortBallotsByCast(items)
	return items, nil
}

func (s *Store) VoidBallot(
	_ context.Context,
	ballotID string,
	reasonCaseID string,
	voidedAt time.Time,
) (entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	if ballot.Voided() {
		return entities.Ballot{}, domainerrors.ErrBallotAlreadyVoided
	}
	ballot = voidBallot(ballot, reasonCaseID, voidedAt)
	s.ballots[strings.TrimSpace(ballotID)] = ballot
	return ballot, nil
}

func (s *Store) VoidSlateBallots(
	_ context.Context,
	slateID string,
	castAfter *time.Time,
	reasonCaseID string,
	voidedAt time.Time,
) ([]entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voided := make([]entities.Ballot, 0)
	for key, ballot := range s.ballots {
		if ballot.SlateID != strings.TrimSpace(slateID) || ballot.Voided() {
			continue
		}
		if castAfter != nil && !ballot.CastAt.After(castAfter.UTC()) {
			continue
		}
		ballot = voidBallot(ballot, reasonCaseID, voidedAt)
		s.ballots[key] = ballot
		voided = append(voided, ballot)
	}
	sortBallotsByCast(voided)
	return voided, nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) GetSlate(_ context.Context, slateID string) (entities.Slate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slate, ok := s.slates[strings.TrimSpace(slateID)]
	if !ok {
		return entities.Slate{}, domainerrors.ErrSlateNotFound
	}
	return slate, nil
}

func (s *Store) UpdateSlateStatus(
	_ context.Context,
	slateID string,
	status entities.SlateStatus,
	updatedAt time.Time,
) (entities.Slate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slate, ok := s.slates[strings.TrimSpace(slateID)]
	if !ok {
		return entities.Slate{}, domainerrors.ErrSlateNotFound
	}
	slate.Status = status
	slate.UpdatedAt = updatedAt.UTC()
	s.slates[strings.TrimSpace(slateID)] = slate
	return slate, nil
}

func (s *Store) IsEligibleElector(_ context.Context, electionID string, electorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible[eligibilityKey(electionID, electorID)], nil
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
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrInvalidBallotInput
		}
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
		return domainerrors.ErrBallotNotFound
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

func voidBallot(ballot entities.Ballot, reasonCaseID string, voidedAt time.Time) entities.Ballot {
	at := voidedAt.UTC()
	ballot.OriginalKind = ballot.Kind
	ballot.Kind = entities.VoteKindVoided
	ballot.VoidedByCaseID = strings.TrimSpace(reasonCaseID)
	ballot.VoidedAt = &at
	return ballot
}

func sortBallotsByCast(items []entities.Ballot) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
}

func eligibilityKey(electionID string, electorID string) string {
	return strings.TrimSpace(electionID) + "|" + strings.TrimSpace(electorID)
}

var _ ports.BallotRepository = (*Store)(nil)
var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.EligibilityClient = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
