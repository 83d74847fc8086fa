package judgmentservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	judgmentservice "pleito/contexts/adjudication/judgment-service"
	"pleito/contexts/adjudication/judgment-service/adapters/memory"
	"pleito/contexts/adjudication/judgment-service/application/commands"
	"pleito/contexts/adjudication/judgment-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	"pleito/contexts/adjudication/judgment-service/ports"
	"pleito/internal/shared/events"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newJudgmentModule(t *testing.T) (judgmentservice.Module, *memory.Store, *manualClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &manualClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	module := judgmentservice.NewModule(judgmentservice.Dependencies{
		Sessions:    store,
		Cases:       store,
		Members:     store,
		Credentials: store,
		Clock:       clock,
		IDGen:       store,
		AppealDays:  3,
	})
	module.Store = store

	store.SetDocket(ports.CaseDocket{
		CaseID:      "case-1",
		ElectionID:  "election-1",
		SubjectType: "slate",
		SubjectID:   "slate-a",
		Status:      "awaiting_judgment",
	})
	store.SetDocket(ports.CaseDocket{
		CaseID:     "case-early",
		ElectionID: "election-1",
		Status:     "under_analysis",
	})
	store.SetMember(entities.CommitteeMember{MemberID: "chair", CommitteeID: "committee-1", Active: true, Presiding: true})
	for _, memberID := range []string{"member-2", "member-3", "member-4", "member-5"} {
		store.SetMember(entities.CommitteeMember{MemberID: memberID, CommitteeID: "committee-1", Active: true})
	}
	return module, store, clock
}

func openSession(t *testing.T, module judgmentservice.Module) entities.Judgment {
	t.Helper()
	judgment, err := module.Judgments.OpenSession(context.Background(), commands.OpenSessionCommand{
		CaseID:      "case-1",
		CommitteeID: "committee-1",
		OpenedBy:    "registrar",
	})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	return judgment
}

func castVote(t *testing.T, module judgmentservice.Module, judgmentID string, memberID string, value entities.VoteValue, tieBreaker bool) {
	t.Helper()
	_, err := module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgmentID,
		MemberID:   memberID,
		Value:      value,
		TieBreaker: tieBreaker,
	})
	if err != nil {
		t.Fatalf("CastCommitteeVote(%s): %v", memberID, err)
	}
}

func TestOpenSessionRequiresDocketedCase(t *testing.T) {
	module, _, _ := newJudgmentModule(t)

	_, err := module.Judgments.OpenSession(context.Background(), commands.OpenSessionCommand{
		CaseID:      "case-early",
		CommitteeID: "committee-1",
		OpenedBy:    "registrar",
	})
	if !errors.Is(err, domainerrors.ErrCaseNotReady) {
		t.Fatalf("err = %v, want ErrCaseNotReady", err)
	}

	openSession(t, module)
	_, err = module.Judgments.OpenSession(context.Background(), commands.OpenSessionCommand{
		CaseID:      "case-1",
		CommitteeID: "committee-1",
		OpenedBy:    "registrar",
	})
	if !errors.Is(err, domainerrors.ErrSessionAlreadyOpen) {
		t.Fatalf("err = %v, want ErrSessionAlreadyOpen", err)
	}
}

func TestSplitCommitteeWithoutTieBreakStaysOpen(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-3", entities.VoteDismissed, false)
	castVote(t, module, judgment.JudgmentID, "member-4", entities.VoteDismissed, false)
	castVote(t, module, judgment.JudgmentID, "member-5", entities.VoteAbstain, false)

	_, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if !errors.Is(err, domainerrors.ErrQuorumNotReached) {
		t.Fatalf("err = %v, want ErrQuorumNotReached", err)
	}

	session, err := store.GetSession(context.Background(), judgment.JudgmentID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Closed() {
		t.Fatal("session closed without a reachable decision")
	}
	if len(store.Closures()) != 0 {
		t.Fatalf("closures = %d, want none", len(store.Closures()))
	}
}

func TestPresidingTieBreakClosesSplitSession(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteDismissed, true)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-3", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-4", entities.VoteDismissed, false)
	castVote(t, module, judgment.JudgmentID, "member-5", entities.VoteAbstain, false)

	closed, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}
	if closed.Outcome != entities.VoteDismissed {
		t.Fatalf("outcome = %s, want dismissed", closed.Outcome)
	}
	if closed.DecisionType != entities.DecisionTieBreak {
		t.Fatalf("decision type = %s, want tie_break", closed.DecisionType)
	}

	closures := store.Closures()
	if len(closures) != 1 {
		t.Fatalf("closures = %d, want 1", len(closures))
	}
	closure := closures[0]
	wantDeadline := time.Date(2026, 3, 5, 23, 59, 59, 999999999, time.UTC)
	if !closure.AppealDeadline.Equal(wantDeadline) {
		t.Fatalf("appeal deadline = %v, want %v", closure.AppealDeadline, wantDeadline)
	}
	if len(closure.History) != 2 {
		t.Fatalf("history entries = %d, want 2", len(closure.History))
	}
	if closure.History[0].NewStatus != "judged" || closure.History[1].NewStatus != "awaiting_appeal" {
		t.Fatalf("history statuses = %s,%s, want judged,awaiting_appeal",
			closure.History[0].NewStatus, closure.History[1].NewStatus)
	}
}

func TestUnanimousAndMajorityDecisions(t *testing.T) {
	module, _, _ := newJudgmentModule(t)

	judgment := openSession(t, module)
	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-3", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-4", entities.VoteAbstain, false)

	closed, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}
	if closed.DecisionType != entities.DecisionUnanimous {
		t.Fatalf("decision type = %s, want unanimous", closed.DecisionType)
	}
	if closed.Outcome != entities.VoteUpheld {
		t.Fatalf("outcome = %s, want upheld", closed.Outcome)
	}
}

func TestMajorityDecision(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	store.SetDocket(ports.CaseDocket{
		CaseID:      "case-2",
		ElectionID:  "election-1",
		SubjectType: "slate",
		SubjectID:   "slate-b",
		Status:      "awaiting_judgment",
	})

	judgment, err := module.Judgments.OpenSession(context.Background(), commands.OpenSessionCommand{
		CaseID:      "case-2",
		CommitteeID: "committee-1",
		OpenedBy:    "registrar",
	})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	castVote(t, module, judgment.JudgmentID, "chair", entities.VotePartiallyUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VotePartiallyUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-3", entities.VotePartiallyUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-4", entities.VoteDismissed, false)
	castVote(t, module, judgment.JudgmentID, "member-5", entities.VoteDismissed, false)

	closed, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}
	if closed.DecisionType != entities.DecisionMajority {
		t.Fatalf("decision type = %s, want majority", closed.DecisionType)
	}
	if closed.Outcome != entities.VotePartiallyUpheld {
		t.Fatalf("outcome = %s, want partially_upheld", closed.Outcome)
	}
}

func TestRecastReplacesEarlierVote(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteDismissed, false)

	votes, err := store.ListVotes(context.Background(), judgment.JudgmentID)
	if err != nil {
		t.Fatalf("ListVotes: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("votes = %d, want 1", len(votes))
	}
	if votes[0].Value != entities.VoteDismissed {
		t.Fatalf("vote value = %s, want dismissed", votes[0].Value)
	}
}

func TestVoteGuards(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	_, err := module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgment.JudgmentID,
		MemberID:   "member-2",
		Value:      entities.VoteUpheld,
		TieBreaker: true,
	})
	if !errors.Is(err, domainerrors.ErrTieBreakNotAllowed) {
		t.Fatalf("err = %v, want ErrTieBreakNotAllowed", err)
	}

	store.SetMember(entities.CommitteeMember{MemberID: "member-6", CommitteeID: "committee-1", Active: false})
	_, err = module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgment.JudgmentID,
		MemberID:   "member-6",
		Value:      entities.VoteUpheld,
	})
	if !errors.Is(err, domainerrors.ErrMemberInactive) {
		t.Fatalf("err = %v, want ErrMemberInactive", err)
	}

	store.SetCredential("member-3", false)
	_, err = module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgment.JudgmentID,
		MemberID:   "member-3",
		Value:      entities.VoteUpheld,
	})
	if !errors.Is(err, domainerrors.ErrCredentialInactive) {
		t.Fatalf("err = %v, want ErrCredentialInactive", err)
	}

	_, err = module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgment.JudgmentID,
		MemberID:   "outsider",
		Value:      entities.VoteUpheld,
	})
	if !errors.Is(err, domainerrors.ErrMemberNotOnCommittee) {
		t.Fatalf("err = %v, want ErrMemberNotOnCommittee", err)
	}
}

func TestVotesAreFrozenAfterClosure(t *testing.T) {
	module, _, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	if _, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	}); err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}

	_, err := module.Judgments.CastCommitteeVote(context.Background(), commands.CastCommitteeVoteCommand{
		JudgmentID: judgment.JudgmentID,
		MemberID:   "member-3",
		Value:      entities.VoteDismissed,
	})
	if !errors.Is(err, domainerrors.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

func TestCloseJudgmentIsIdempotent(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)

	first, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if err != nil {
		t.Fatalf("first CloseJudgment: %v", err)
	}
	second, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	})
	if err != nil {
		t.Fatalf("second CloseJudgment: %v", err)
	}
	if second.Outcome != first.Outcome || second.DecisionType != first.DecisionType {
		t.Fatalf("second closure diverged: %s/%s vs %s/%s",
			second.Outcome, second.DecisionType, first.Outcome, first.DecisionType)
	}
	if len(store.Closures()) != 1 {
		t.Fatalf("closures = %d, want 1", len(store.Closures()))
	}
}

func TestConcurrentClosersApplyClosureOnce(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-3", entities.VoteUpheld, false)

	const closers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, closers)
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
				JudgmentID: judgment.JudgmentID,
				Actor:      "chair",
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent CloseJudgment: %v", err)
		}
	}
	if len(store.Closures()) != 1 {
		t.Fatalf("closures = %d, want exactly 1", len(store.Closures()))
	}
}

func TestClosureEmitsJudgmentClosedEvent(t *testing.T) {
	module, store, clock := newJudgmentModule(t)
	judgment := openSession(t, module)

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	if _, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID:   judgment.JudgmentID,
		Actor:        "chair",
		FullVoidance: true,
	}); err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending outbox = %d, want 1", len(pending))
	}
	var envelope events.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.EventType != "judgment.closed" {
		t.Fatalf("event type = %s, want judgment.closed", envelope.EventType)
	}
	if envelope.PartitionKey != "election-1" {
		t.Fatalf("partition key = %s, want election-1", envelope.PartitionKey)
	}

	var data map[string]any
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	if data["subject_type"] != "slate" {
		t.Fatalf("subject_type = %v, want slate", data["subject_type"])
	}
	if data["subject_id"] != "slate-a" {
		t.Fatalf("subject_id = %v, want slate-a", data["subject_id"])
	}
	if data["outcome"] != "upheld" {
		t.Fatalf("outcome = %v, want upheld", data["outcome"])
	}
	if data["full_voidance"] != true {
		t.Fatalf("full_voidance = %v, want true", data["full_voidance"])
	}
	wantEffective := clock.Now().UTC().Format(time.RFC3339Nano)
	if data["effective_at"] != wantEffective {
		t.Fatalf("effective_at = %v, want %s", data["effective_at"], wantEffective)
	}
}

func TestCaseApplierRunsInsideClosure(t *testing.T) {
	module, store, _ := newJudgmentModule(t)
	judgment := openSession(t, module)

	var applied []ports.CaseClosure
	store.CaseApplier = func(_ context.Context, closure ports.CaseClosure) error {
		applied = append(applied, closure)
		return nil
	}

	castVote(t, module, judgment.JudgmentID, "chair", entities.VoteUpheld, false)
	castVote(t, module, judgment.JudgmentID, "member-2", entities.VoteUpheld, false)
	if _, err := module.Judgments.CloseJudgment(context.Background(), commands.CloseJudgmentCommand{
		JudgmentID: judgment.JudgmentID,
		Actor:      "chair",
	}); err != nil {
		t.Fatalf("CloseJudgment: %v", err)
	}

	if len(applied) != 1 {
		t.Fatalf("applier calls = %d, want 1", len(applied))
	}
	if applied[0].CaseID != "case-1" || applied[0].JudgmentID != judgment.JudgmentID {
		t.Fatalf("applied closure addressed %s/%s", applied[0].CaseID, applied[0].JudgmentID)
	}
}
