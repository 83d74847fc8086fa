package caseservice_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	caseservice "pleito/contexts/adjudication/case-service"
	"pleito/contexts/adjudication/case-service/adapters/memory"
	"pleito/contexts/adjudication/case-service/application/commands"
	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
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

func newCaseModule(t *testing.T) (caseservice.Module, *memory.Store, *manualClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &manualClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	module := caseservice.NewModule(caseservice.Dependencies{
		Cases:     store,
		Sequencer: store,
		Documents: store,
		Notifier:  store,
		Outbox:    store,
		Clock:     clock,
		IDGen:     store,
		Policy:    commands.DeadlinePolicy{AdmissibilityDays: 3, DefenseDays: 5, AppealDays: 3},
	})
	module.Store = store
	return module, store, clock
}

func fileCase(t *testing.T, module caseservice.Module) entities.Case {
	t.Helper()
	filed, err := module.Cases.FileCase(context.Background(), commands.FileCaseCommand{
		ElectionID:    "election-1",
		Type:          entities.CaseTypeImpugnation,
		SubjectType:   entities.SubjectSlate,
		SubjectID:     "slate-a",
		ComplainantID: "member-1",
		Summary:       "slate registration irregularity",
	})
	if err != nil {
		t.Fatalf("FileCase: %v", err)
	}
	return filed
}

func TestFileCaseAssignsYearlyProtocol(t *testing.T) {
	module, _, _ := newCaseModule(t)

	first := fileCase(t, module)
	second := fileCase(t, module)

	if first.Protocol != "PLT-2026-0001" {
		t.Fatalf("protocol = %s, want PLT-2026-0001", first.Protocol)
	}
	if second.Protocol != "PLT-2026-0002" {
		t.Fatalf("protocol = %s, want PLT-2026-0002", second.Protocol)
	}
	if first.Status != entities.StatusReceived {
		t.Fatalf("status = %s, want received", first.Status)
	}
}

func TestFileCaseSubjectValidation(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()

	cases := []commands.FileCaseCommand{
		// impugnation without a subject
		{ElectionID: "election-1", Type: entities.CaseTypeImpugnation, ComplainantID: "member-1", Summary: "contested"},
		// unknown subject type
		{ElectionID: "election-1", Type: entities.CaseTypeComplaint, SubjectType: "campaign", SubjectID: "c-1", ComplainantID: "member-1", Summary: "bad subject"},
		// subject type without id
		{ElectionID: "election-1", Type: entities.CaseTypeComplaint, SubjectType: entities.SubjectMember, ComplainantID: "member-1", Summary: "missing id"},
		// subject id without type
		{ElectionID: "election-1", Type: entities.CaseTypeComplaint, SubjectID: "member-2", ComplainantID: "member-1", Summary: "missing type"},
	}
	for i, cmd := range cases {
		if _, err := module.Cases.FileCase(ctx, cmd); !errors.Is(err, domainerrors.ErrInvalidCaseInput) {
			t.Fatalf("case %d: err = %v, want ErrInvalidCaseInput", i, err)
		}
	}

	filed, err := module.Cases.FileCase(ctx, commands.FileCaseCommand{
		ElectionID:    "election-1",
		Type:          entities.CaseTypeImpugnation,
		SubjectType:   entities.SubjectResult,
		SubjectID:     "result-1",
		ComplainantID: "member-1",
		Summary:       "result impugnation",
	})
	if err != nil {
		t.Fatalf("FileCase result subject: %v", err)
	}
	if filed.SubjectType != entities.SubjectResult || filed.SubjectID != "result-1" {
		t.Fatalf("subject = %s/%s, want result/result-1", filed.SubjectType, filed.SubjectID)
	}
}

func TestAnonymousFilingKeepsComplainantOffRecord(t *testing.T) {
	module, _, _ := newCaseModule(t)

	filed, err := module.Cases.FileCase(context.Background(), commands.FileCaseCommand{
		ElectionID:    "election-1",
		Type:          entities.CaseTypeComplaint,
		ComplainantID: "member-9",
		Anonymous:     true,
		Summary:       "anonymous report of campaign misconduct",
	})
	if err != nil {
		t.Fatalf("FileCase: %v", err)
	}
	if filed.ComplainantID != "" {
		t.Fatal("anonymous filing must not record the complainant")
	}

	history, err := module.Store.ListHistory(context.Background(), filed.CaseID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if history[0].Actor != "anonymous" {
		t.Fatalf("opening actor = %s, want anonymous", history[0].Actor)
	}
}

func TestAdmissibilityAcceptanceOpensDefenseWindow(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	picked, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	})
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if picked.Status != entities.StatusUnderAnalysis || picked.AdmissibilityDeadline == nil {
		t.Fatalf("pickup did not open the admissibility clock: %+v", picked)
	}
	wantDeadline := time.Date(2026, 3, 5, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !picked.AdmissibilityDeadline.Equal(wantDeadline) {
		t.Fatalf("admissibility deadline = %v, want %v", picked.AdmissibilityDeadline, wantDeadline)
	}

	accepted, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: true,
		Reason:   "formally sufficient",
	})
	if err != nil {
		t.Fatalf("RuleAdmissibility: %v", err)
	}
	if accepted.Status != entities.StatusAwaitingDefense || accepted.DefenseDeadline == nil {
		t.Fatalf("acceptance did not open the defense window: %+v", accepted)
	}

	history, err := module.Store.ListHistory(ctx, filed.CaseID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	var statuses []string
	for _, record := range history {
		statuses = append(statuses, string(record.NewStatus))
	}
	want := "received,under_analysis,admissibility_accepted,awaiting_defense"
	if got := strings.Join(statuses, ","); got != want {
		t.Fatalf("history = %s, want %s", got, want)
	}
}

func TestAdmissibilityRejectionArchivesCase(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	if _, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	rejected, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: false,
		Reason:   "no standing",
	})
	if err != nil {
		t.Fatalf("RuleAdmissibility: %v", err)
	}
	if rejected.Status != entities.StatusArchived {
		t.Fatalf("status = %s, want archived", rejected.Status)
	}

	if _, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: true,
		Reason:   "second thoughts",
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition on archived case", err)
	}
}

func TestRulingWithoutReasonRejected(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	if _, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if _, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: true,
	}); !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("got %v, want ErrReasonRequired", err)
	}
}

func acceptedCase(t *testing.T, module caseservice.Module) entities.Case {
	t.Helper()
	ctx := context.Background()
	filed := fileCase(t, module)
	if _, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	accepted, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: true,
		Reason:   "formally sufficient",
	})
	if err != nil {
		t.Fatalf("RuleAdmissibility: %v", err)
	}
	return accepted
}

func TestTimelyDefenseAdvancesCase(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()
	accepted := acceptedCase(t, module)

	defense, err := module.Cases.SubmitDefense(ctx, commands.SubmitDefenseCommand{
		CaseID:       accepted.CaseID,
		RespondentID: "slate-a-rep",
		Content:      "the registration met every requirement",
	})
	if err != nil {
		t.Fatalf("SubmitDefense: %v", err)
	}
	if !defense.Timely {
		t.Fatal("defense within the window must be timely")
	}

	c, err := module.Store.GetCase(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if c.Status != entities.StatusDefenseSubmitted {
		t.Fatalf("status = %s, want defense_submitted", c.Status)
	}

	advanced, err := module.Cases.ProceedToJudgment(ctx, commands.ProceedToJudgmentCommand{
		CaseID: accepted.CaseID,
		Actor:  "analyst-1",
	})
	if err != nil {
		t.Fatalf("ProceedToJudgment: %v", err)
	}
	if advanced.Status != entities.StatusAwaitingJudgment {
		t.Fatalf("status = %s, want awaiting_judgment", advanced.Status)
	}
}

func TestUntimelyDefenseRecordedButDoesNotAdvance(t *testing.T) {
	module, _, clock := newCaseModule(t)
	ctx := context.Background()
	accepted := acceptedCase(t, module)

	clock.Advance(10 * 24 * time.Hour)
	defense, err := module.Cases.SubmitDefense(ctx, commands.SubmitDefenseCommand{
		CaseID:       accepted.CaseID,
		RespondentID: "slate-a-rep",
		Content:      "late defense",
	})
	if err != nil {
		t.Fatalf("SubmitDefense: %v", err)
	}
	if defense.Timely {
		t.Fatal("defense past the deadline must be flagged untimely")
	}

	c, err := module.Store.GetCase(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if c.Status != entities.StatusAwaitingDefense {
		t.Fatalf("status = %s, untimely defense must not advance the case", c.Status)
	}

	advanced, err := module.Cases.ProceedToJudgment(ctx, commands.ProceedToJudgmentCommand{
		CaseID: accepted.CaseID,
		Actor:  "analyst-1",
	})
	if err != nil {
		t.Fatalf("ProceedToJudgment: %v", err)
	}
	if advanced.Status != entities.StatusAwaitingJudgment {
		t.Fatalf("status = %s, want awaiting_judgment", advanced.Status)
	}

	history, err := module.Store.ListHistory(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	sawLapse := false
	for _, record := range history {
		if record.NewStatus == entities.StatusDefenseNotSubmitted {
			sawLapse = true
		}
	}
	if !sawLapse {
		t.Fatal("history must record defense_not_submitted before judgment")
	}
}

func TestSubmitEvidenceStoresReferenceOnly(t *testing.T) {
	module, _, _ := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	evidence, err := module.Cases.SubmitEvidence(ctx, commands.SubmitEvidenceCommand{
		CaseID:      filed.CaseID,
		SubmittedBy: "member-1",
		Filename:    "photo.jpg",
		Data:        []byte{0x01, 0x02},
		Note:        "campaign material",
	})
	if err != nil {
		t.Fatalf("SubmitEvidence: %v", err)
	}
	if evidence.DocumentURL == "" {
		t.Fatal("evidence must carry the stored document reference")
	}
}

func TestOverdueFlagNeverAutoDecides(t *testing.T) {
	module, store, clock := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	if _, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}

	clock.Advance(5 * 24 * time.Hour)
	flagged, err := module.Cases.FlagOverdue(ctx, filed.CaseID)
	if err != nil {
		t.Fatalf("FlagOverdue: %v", err)
	}
	if !flagged.Overdue {
		t.Fatal("case past the admissibility deadline must be flagged overdue")
	}
	if flagged.Status != entities.StatusUnderAnalysis {
		t.Fatalf("status = %s, an overdue case must stay under analysis", flagged.Status)
	}

	again, err := module.Cases.FlagOverdue(ctx, filed.CaseID)
	if err != nil {
		t.Fatalf("FlagOverdue repeat: %v", err)
	}
	if !again.Overdue {
		t.Fatal("repeat flag must be a no-op, not a reset")
	}

	candidates, err := store.ListOverdueCandidates(ctx, clock.Now())
	if err != nil {
		t.Fatalf("ListOverdueCandidates: %v", err)
	}
	for _, candidate := range candidates {
		if candidate.CaseID == filed.CaseID {
			t.Fatal("already flagged case must not reappear as candidate")
		}
	}
}

func TestReopenRequiresReasonAndTerminalStatus(t *testing.T) {
	module, store, _ := newCaseModule(t)
	ctx := context.Background()
	filed := fileCase(t, module)

	if _, err := module.Cases.ReopenCase(ctx, commands.ReopenCaseCommand{
		CaseID: filed.CaseID,
		Actor:  "commission",
		Reason: "new facts",
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition on non-terminal case", err)
	}

	if _, err := module.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    filed.CaseID,
		AnalystID: "analyst-1",
	}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if _, err := module.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   filed.CaseID,
		Actor:    "analyst-1",
		Accepted: false,
		Reason:   "no standing",
	}); err != nil {
		t.Fatalf("RuleAdmissibility: %v", err)
	}

	if _, err := module.Cases.ReopenCase(ctx, commands.ReopenCaseCommand{
		CaseID: filed.CaseID,
		Actor:  "commission",
	}); !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("got %v, want ErrReasonRequired", err)
	}

	priorHistory, err := store.ListHistory(ctx, filed.CaseID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}

	reopened, err := module.Cases.ReopenCase(ctx, commands.ReopenCaseCommand{
		CaseID: filed.CaseID,
		Actor:  "commission",
		Reason: "new evidence surfaced",
	})
	if err != nil {
		t.Fatalf("ReopenCase: %v", err)
	}
	if reopened.Status != entities.StatusUnderAnalysis {
		t.Fatalf("status = %s, want under_analysis after reopen", reopened.Status)
	}
	if reopened.ReopenCount != 1 {
		t.Fatalf("reopen count = %d, want 1", reopened.ReopenCount)
	}

	fullHistory, err := store.ListHistory(ctx, filed.CaseID)
	if err != nil {
		t.Fatalf("ListHistory after reopen: %v", err)
	}
	if len(fullHistory) != len(priorHistory)+1 {
		t.Fatalf("history length = %d, want %d (append-only)", len(fullHistory), len(priorHistory)+1)
	}
}

func TestAppealFlowWithCounterArguments(t *testing.T) {
	module, store, clock := newCaseModule(t)
	ctx := context.Background()
	accepted := acceptedCase(t, module)

	// Put the case where judgment closure leaves it: judged, appeal window
	// open for three days.
	now := clock.Now()
	appealDeadline := time.Date(now.Year(), now.Month(), now.Day()+3, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	judged, err := store.GetCase(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	judged.Status = entities.StatusAwaitingAppeal
	judged.Outcome = entities.OutcomeUpheld
	judged.AppealDeadline = &appealDeadline
	if err := store.UpdateCase(ctx, judged, nil); err != nil {
		t.Fatalf("UpdateCase: %v", err)
	}

	appeal, err := module.Cases.FileAppeal(ctx, commands.FileAppealCommand{
		CaseID:      accepted.CaseID,
		AppellantID: "slate-a-rep",
		Grounds:     "the committee misread the evidence",
	})
	if err != nil {
		t.Fatalf("FileAppeal: %v", err)
	}

	if _, err := module.Cases.SubmitCounterArguments(ctx, commands.SubmitCounterArgumentsCommand{
		AppealID: appeal.AppealID,
		AuthorID: "member-1",
		Content:  "the ruling was correct",
	}); err != nil {
		t.Fatalf("SubmitCounterArguments: %v", err)
	}

	final, err := module.Cases.JudgeAppeal(ctx, commands.JudgeAppealCommand{
		CaseID:  accepted.CaseID,
		Actor:   "appeal-committee",
		Outcome: entities.OutcomeDismissed,
		Reason:  "grounds not demonstrated",
	})
	if err != nil {
		t.Fatalf("JudgeAppeal: %v", err)
	}
	if final.Status != entities.StatusAppealJudged {
		t.Fatalf("status = %s, want appeal_judged", final.Status)
	}

	if _, err := module.Cases.SubmitCounterArguments(ctx, commands.SubmitCounterArgumentsCommand{
		AppealID: appeal.AppealID,
		AuthorID: "member-2",
		Content:  "too late",
	}); !errors.Is(err, domainerrors.ErrAppealAlreadyJudged) {
		t.Fatalf("got %v, want ErrAppealAlreadyJudged", err)
	}
}

func TestUntimelyAppealStaysOnRecord(t *testing.T) {
	module, store, clock := newCaseModule(t)
	ctx := context.Background()
	accepted := acceptedCase(t, module)

	deadline := clock.Now().Add(24 * time.Hour)
	judged, err := store.GetCase(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	judged.Status = entities.StatusAwaitingAppeal
	judged.AppealDeadline = &deadline
	if err := store.UpdateCase(ctx, judged, nil); err != nil {
		t.Fatalf("UpdateCase: %v", err)
	}

	clock.Advance(48 * time.Hour)
	appeal, err := module.Cases.FileAppeal(ctx, commands.FileAppealCommand{
		CaseID:      accepted.CaseID,
		AppellantID: "slate-a-rep",
		Grounds:     "late grounds",
	})
	if err != nil {
		t.Fatalf("FileAppeal: %v", err)
	}
	if appeal.Timely {
		t.Fatal("appeal filed after the deadline must be flagged untimely")
	}

	stored, err := store.GetAppeal(ctx, appeal.AppealID)
	if err != nil {
		t.Fatalf("GetAppeal: %v", err)
	}
	if stored.Timely || stored.Grounds != "late grounds" {
		t.Fatalf("stored appeal = %+v, want untimely record preserved", stored)
	}

	after, err := store.GetCase(ctx, accepted.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if after.Status != entities.StatusAwaitingAppeal {
		t.Fatalf("status = %s, untimely appeal must not advance the case", after.Status)
	}
}
