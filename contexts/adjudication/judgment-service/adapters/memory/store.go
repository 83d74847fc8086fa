package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pleito/contexts/adjudication/judgment-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	"pleito/contexts/adjudication/judgment-service/ports"
	"pleito/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter for tests and local wiring. CaseApplier,
// when set, receives the case-side closure effect inside the same critical
// section that closes the session, mirroring the transactional adapter.
type Store struct {
	mu sync.Mutex

	sessions map[string]entities.Judgment
	byCase   map[string]string
	votes    map[string]map[string]entities.CommitteeVote
	members  map[string]entities.CommitteeMember
	creds    map[string]bool
	dockets  map[string]ports.CaseDocket
	closures []ports.CaseClosure
	outbox   map[string]outboxRecord

	CaseApplier func(ctx context.Context, closure ports.CaseClosure) error
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]entities.Judgment),
		byCase:   make(map[string]string),
		votes:    make(map[string]map[string]entities.CommitteeVote),
		members:  make(map[string]entities.CommitteeMember),
		creds:    make(map[string]bool),
		dockets:  make(map[string]ports.CaseDocket),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) SetMember(member entities.CommitteeMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(member.CommitteeID, member.MemberID)] = member
	s.creds[member.MemberID] = true
}

func (s *Store) SetCredential(memberID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[strings.TrimSpace(memberID)] = active
}

func (s *Store) SetDocket(docket ports.CaseDocket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dockets[strings.TrimSpace(docket.CaseID)] = docket
}

// Closures returns every applied case closure, oldest first.
func (s *Store) Closures() []ports.CaseClosure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.CaseClosure(nil), s.closures...)
}

func (s *Store) GetCaseDocket(_ context.Context, caseID string) (ports.CaseDocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docket, ok := s.dockets[strings.TrimSpace(caseID)]
	if !ok {
		return ports.CaseDocket{}, domainerrors.ErrSessionNotFound
	}
	return docket, nil
}

func (s *Store) CreateSession(_ context.Context, judgment entities.Judgment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byCase[judgment.CaseID]; ok {
		if existing := s.sessions[existingID]; !existing.Closed() {
			return domainerrors.ErrSessionAlreadyOpen
		}
	}
	s.sessions[judgment.JudgmentID] = judgment
	s.byCase[judgment.CaseID] = judgment.JudgmentID
	return nil
}

func (s *Store) GetSession(_ context.Context, judgmentID string) (entities.Judgment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(judgmentID)]
	if !ok {
		return entities.Judgment{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) GetSessionByCase(_ context.Context, caseID string) (entities.Judgment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	judgmentID, ok := s.byCase[strings.TrimSpace(caseID)]
	if !ok {
		return entities.Judgment{}, false, nil
	}
	return s.sessions[judgmentID], true, nil
}

func (s *Store) UpsertVote(_ context.Context, vote entities.CommitteeVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[vote.JudgmentID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	if session.Closed() {
		return domainerrors.ErrSessionClosed
	}
	if s.votes[vote.JudgmentID] == nil {
		s.votes[vote.JudgmentID] = make(map[string]entities.CommitteeVote)
	}
	s.votes[vote.JudgmentID][vote.MemberID] = vote
	return nil
}

func (s *Store) ListVotes(_ context.Context, judgmentID string) ([]entities.CommitteeVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.CommitteeVote, 0, len(s.votes[strings.TrimSpace(judgmentID)]))
	for _, vote := range s.votes[strings.TrimSpace(judgmentID)] {
		items = append(items, vote)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) CloseJudgment(
	ctx context.Context,
	judgment entities.Judgment,
	closure ports.CaseClosure,
	envelope events.Envelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[judgment.JudgmentID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	if current.Closed() {
		return domainerrors.ErrSessionClosed
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if s.CaseApplier != nil {
		if err := s.CaseApplier(ctx, closure); err != nil {
			return err
		}
	}
	s.sessions[judgment.JudgmentID] = judgment
	s.closures = append(s.closures, closure)
	s.outbox[envelope.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
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
		return domainerrors.ErrSessionNotFound
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) HasActiveCredential(_ context.Context, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[strings.TrimSpace(memberID)], nil
}

func (s *Store) GetCommitteeMember(_ context.Context, committeeID string, memberID string) (entities.CommitteeMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[memberKey(committeeID, memberID)]
	if !ok {
		return entities.CommitteeMember{}, domainerrors.ErrMemberNotOnCommittee
	}
	return member, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func memberKey(committeeID string, memberID string) string {
	return strings.TrimSpace(committeeID) + "|" + strings.TrimSpace(memberID)
}

var _ ports.JudgmentRepository = (*Store)(nil)
var _ ports.CaseReader = (*Store)(nil)
var _ ports.MemberDirectory = (*Store)(nil)
var _ ports.CredentialClient = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
