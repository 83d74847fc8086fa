package tallybridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	tallybridge "pleito/contexts/electoral-process/tally-bridge"
	domainerrors "pleito/contexts/electoral-process/tally-bridge/domain/errors"
	"pleito/internal/shared/events"
)

func closedEvent(t *testing.T, eventID string, data map[string]any) events.Envelope {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     "judgment.closed",
		SourceService: "judgment-service",
		OccurredAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		EntityType:    "judgment",
		EntityID:      "judgment-1",
		SchemaVersion: 1,
		PartitionKey:  "election-1",
		Data:          payload,
	}
}

func upheldPayload() map[string]any {
	return map[string]any{
		"judgment_id":   "judgment-1",
		"case_id":       "case-1",
		"election_id":   "election-1",
		"subject_type":  "slate",
		"subject_id":    "slate-a",
		"outcome":       "upheld",
		"decision_type": "majority",
		"effective_at":  "2026-03-08T00:00:00Z",
		"full_voidance": false,
	}
}

func TestUpheldOutcomeDisqualifiesVoidsAndInvalidates(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)

	err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", upheldPayload()))
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	disqualifications := module.Store.Disqualifications()
	if len(disqualifications) != 1 || disqualifications[0].SlateID != "slate-a" {
		t.Fatalf("disqualifications = %+v, want one for slate-a", disqualifications)
	}
	if disqualifications[0].ReasonCaseID != "case-1" {
		t.Fatalf("reason case = %s, want case-1", disqualifications[0].ReasonCaseID)
	}

	voidances := module.Store.Voidances()
	if len(voidances) != 1 {
		t.Fatalf("voidances = %d, want 1", len(voidances))
	}
	if voidances[0].CastAfter == nil {
		t.Fatal("cast-after cutoff missing for dated disqualification")
	}
	wantCutoff := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	if !voidances[0].CastAfter.Equal(wantCutoff) {
		t.Fatalf("cast-after = %v, want %v", voidances[0].CastAfter, wantCutoff)
	}

	invalidations := module.Store.Invalidations()
	if len(invalidations) != 1 || invalidations[0].ElectionID != "election-1" {
		t.Fatalf("invalidations = %+v, want one for election-1", invalidations)
	}
}

func TestFullVoidanceDropsTheCutoff(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["full_voidance"] = true

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	voidances := module.Store.Voidances()
	if len(voidances) != 1 {
		t.Fatalf("voidances = %d, want 1", len(voidances))
	}
	if voidances[0].CastAfter != nil {
		t.Fatalf("cast-after = %v, want nil under full voidance", voidances[0].CastAfter)
	}
}

func TestMissingEffectiveDateFallsBackToEventTime(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	delete(payload, "effective_at")

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	voidances := module.Store.Voidances()
	if len(voidances) != 1 {
		t.Fatalf("voidances = %d, want 1", len(voidances))
	}
	if voidances[0].CastAfter == nil {
		t.Fatal("cast-after cutoff missing, undated decision must not void retroactively")
	}
	wantCutoff := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !voidances[0].CastAfter.Equal(wantCutoff) {
		t.Fatalf("cast-after = %v, want the event occurrence time %v", voidances[0].CastAfter, wantCutoff)
	}
}

func TestPartiallyUpheldOnlyInvalidatesPartials(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["outcome"] = "partially_upheld"

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(module.Store.Disqualifications()) != 0 {
		t.Fatal("partially upheld outcome must not disqualify the slate")
	}
	if len(module.Store.Voidances()) != 0 {
		t.Fatal("partially upheld outcome must not void ballots")
	}
	if len(module.Store.Invalidations()) != 1 {
		t.Fatalf("invalidations = %d, want 1", len(module.Store.Invalidations()))
	}
}

func TestResultSubjectOnlyInvalidatesPartials(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["subject_type"] = "result"
	payload["subject_id"] = "result-1"

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(module.Store.Disqualifications())+len(module.Store.Voidances()) != 0 {
		t.Fatal("result impugnation must not touch the ledger")
	}
	if len(module.Store.Invalidations()) != 1 {
		t.Fatalf("invalidations = %d, want 1", len(module.Store.Invalidations()))
	}
}

func TestMemberSubjectHasNoTallyEffect(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["subject_type"] = "member"
	payload["subject_id"] = "member-7"

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(module.Store.Disqualifications())+len(module.Store.Voidances())+len(module.Store.Invalidations()) != 0 {
		t.Fatal("member case must have no ledger or tally effects")
	}
}

func TestDismissedOutcomeLeavesLedgerUntouched(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["outcome"] = "dismissed"

	if err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(module.Store.Disqualifications())+len(module.Store.Voidances())+len(module.Store.Invalidations()) != 0 {
		t.Fatal("dismissed outcome must have no ledger or tally effects")
	}
}

func TestDuplicateEventAppliesOnce(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	event := closedEvent(t, "event-1", upheldPayload())

	if err := module.Consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first HandleEvent: %v", err)
	}
	if err := module.Consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("second HandleEvent: %v", err)
	}

	if len(module.Store.Disqualifications()) != 1 {
		t.Fatalf("disqualifications = %d, want 1", len(module.Store.Disqualifications()))
	}
	if len(module.Store.Invalidations()) != 1 {
		t.Fatalf("invalidations = %d, want 1", len(module.Store.Invalidations()))
	}
}

func TestFailedApplicationIsRetriable(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	module.Store.FailVoidance = errors.New("ledger unavailable")
	event := closedEvent(t, "event-1", upheldPayload())

	if err := module.Consumer.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected the first attempt to fail")
	}
	if err := module.Consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("retry HandleEvent: %v", err)
	}

	if len(module.Store.Voidances()) != 1 {
		t.Fatalf("voidances = %d, want 1 after retry", len(module.Store.Voidances()))
	}
}

func TestMalformedPayloadIsRejected(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)
	payload := upheldPayload()
	payload["outcome"] = "struck_down"

	err := module.Consumer.HandleEvent(context.Background(), closedEvent(t, "event-1", payload))
	if !errors.Is(err, domainerrors.ErrMalformedEvent) {
		t.Fatalf("err = %v, want ErrMalformedEvent", err)
	}
	if len(module.Store.Disqualifications())+len(module.Store.Invalidations()) != 0 {
		t.Fatal("malformed event must have no effects")
	}
}

func TestForeignEventTypesAreIgnored(t *testing.T) {
	module := tallybridge.NewInMemoryModule(nil)

	err := module.Consumer.HandleEvent(context.Background(), events.Envelope{
		EventID:   "event-2",
		EventType: "ballot.cast",
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(module.Store.Invalidations()) != 0 {
		t.Fatal("foreign events must not reach the tally")
	}
}
