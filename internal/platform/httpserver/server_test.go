package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	caseservice "pleito/contexts/adjudication/case-service"
	casecommands "pleito/contexts/adjudication/case-service/application/commands"
	judgmentservice "pleito/contexts/adjudication/judgment-service"
	ballotledger "pleito/contexts/electoral-process/ballot-ledger"
	ledgerentities "pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	tallyengine "pleito/contexts/electoral-process/tally-engine"
	"pleito/internal/platform/httpserver"
	"pleito/internal/platform/metrics"
	"pleito/internal/shared/deadline"
)

func newTestServer(t *testing.T) (*httpserver.Server, ballotledger.Module) {
	t.Helper()

	ledger := ballotledger.NewInMemoryModule(nil, "test-receipt-secret", nil)
	now := time.Now().UTC()
	ledger.Store.SetElection(ledgerentities.Election{
		ElectionID:       "election-1",
		Phase:            ledgerentities.PhaseVoting,
		Mode:             ledgerentities.ModeOnline,
		VotingStartsAt:   now.Add(-time.Hour),
		VotingEndsAt:     now.Add(time.Hour),
		SeatCount:        5,
		EligibleElectors: 200,
	})
	ledger.Store.SetSlate(ledgerentities.Slate{
		SlateID:     "slate-a",
		ElectionID:  "election-1",
		Number:      10,
		Name:        "Renovation",
		Status:      ledgerentities.SlateStatusRegistered,
		BallotOrder: 1,
	})
	ledger.Store.SetEligible("election-1", "elector-1", true)

	tally := tallyengine.NewInMemoryModule(nil)
	cases := caseservice.NewInMemoryModule(casecommands.DeadlinePolicy{
		AdmissibilityDays: 3,
		DefenseDays:       5,
		AppealDays:        3,
	}, nil)
	judgments := judgmentservice.NewInMemoryModule(3, deadline.Calendar{}, nil)

	server := httpserver.New(ledger, tally, cases, judgments, metrics.New("test"), nil, ":0")
	return server, ledger
}

func doJSON(t *testing.T, handler http.Handler, method, target string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected exposition output")
	}
}

func TestCastVoteOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/elections/v1/ballots",
		map[string]string{"X-Elector-Id": "elector-1"},
		map[string]any{
			"election_id": "election-1",
			"vote_kind":   "slate",
			"slate_id":    "slate-a",
		})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cast vote status = %d, body %s", rec.Code, rec.Body.String())
	}

	var cast struct {
		BallotID string `json:"ballot_id"`
		Receipt  string `json:"receipt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cast); err != nil {
		t.Fatalf("decode cast response: %v", err)
	}
	if cast.BallotID == "" || cast.Receipt == "" {
		t.Fatalf("expected ballot id and receipt, got %+v", cast)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/elections/v1/receipts/verify",
		map[string]string{"X-Elector-Id": "elector-1"},
		map[string]any{
			"election_id": "election-1",
			"receipt":     cast.Receipt,
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify receipt status = %d, body %s", rec.Code, rec.Body.String())
	}
	var verify struct {
		Included bool `json:"included"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verify); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if !verify.Included {
		t.Fatal("expected receipt to verify as included")
	}
}

func TestCastVoteRequiresElectorHeader(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/elections/v1/ballots", nil,
		map[string]any{
			"election_id": "election-1",
			"vote_kind":   "slate",
			"slate_id":    "slate-a",
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestDuplicateVoteMapsToConflict(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()
	headers := map[string]string{"X-Elector-Id": "elector-1"}
	body := map[string]any{
		"election_id": "election-1",
		"vote_kind":   "slate",
		"slate_id":    "slate-a",
	}

	if rec := doJSON(t, handler, http.MethodPost, "/api/elections/v1/ballots", headers, body); rec.Code != http.StatusCreated {
		t.Fatalf("first vote status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/elections/v1/ballots", headers, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second vote status = %d, want 409", rec.Code)
	}
}

func TestFileCaseOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/adjudication/v1/cases",
		map[string]string{"X-User-Id": "member-1"},
		map[string]any{
			"election_id":  "election-1",
			"case_type":    "impugnation",
			"subject_type": "slate",
			"subject_id":   "slate-a",
			"summary":      "Campaigning outside the permitted window.",
		})
	if rec.Code != http.StatusCreated {
		t.Fatalf("file case status = %d, body %s", rec.Code, rec.Body.String())
	}
	var filed struct {
		CaseID   string `json:"case_id"`
		Protocol string `json:"protocol"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &filed); err != nil {
		t.Fatalf("decode case response: %v", err)
	}
	if filed.CaseID == "" || filed.Protocol == "" {
		t.Fatalf("expected case id and protocol, got %+v", filed)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/adjudication/v1/cases/"+filed.CaseID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get case status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestIdentifiedFilingRequiresUserHeader(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/adjudication/v1/cases", nil,
		map[string]any{
			"election_id": "election-1",
			"case_type":   "impugnation",
			"summary":     "Identified filing without identification.",
		})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestOpenSessionForUnknownCase(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/judgments/v1/sessions",
		map[string]string{"X-User-Id": "member-1"},
		map[string]any{
			"case_id":      "case-missing",
			"committee_id": "committee-1",
		})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}
}
