package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	caseservice "pleito/contexts/adjudication/case-service"
	judgmentservice "pleito/contexts/adjudication/judgment-service"
	ballotledger "pleito/contexts/electoral-process/ballot-ledger"
	tallyengine "pleito/contexts/electoral-process/tally-engine"
	"pleito/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pleito/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	metrics   *metrics.Metrics
	ledger    ballotledger.Module
	tally     tallyengine.Module
	cases     caseservice.Module
	judgments judgmentservice.Module
}

func New(
	ledger ballotledger.Module,
	tally tallyengine.Module,
	cases caseservice.Module,
	judgments judgmentservice.Module,
	m *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		metrics:   m,
		ledger:    ledger,
		tally:     tally,
		cases:     cases,
		judgments: judgments,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest-driven tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.handle("POST /api/elections/v1/ballots", s.handleCastVote)
	s.handle("POST /api/elections/v1/receipts/verify", s.handleVerifyReceipt)
	s.handle("POST /api/elections/v1/ballots/{ballot_id}/void", s.handleVoidBallot)

	s.handle("POST /api/elections/v1/elections/{election_id}/results", s.handleComputeResult)
	s.handle("GET /api/elections/v1/elections/{election_id}/results", s.handleListResults)
	s.handle("GET /api/elections/v1/elections/{election_id}/results/latest", s.handleLatestResult)
	s.handle("GET /api/elections/v1/results/{result_id}", s.handleGetResult)

	s.handle("POST /api/adjudication/v1/cases", s.handleFileCase)
	s.handle("GET /api/adjudication/v1/cases/{case_id}", s.handleGetCase)
	s.handle("GET /api/adjudication/v1/cases/{case_id}/file", s.handleGetCaseFile)
	s.handle("GET /api/adjudication/v1/elections/{election_id}/cases", s.handleListCases)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/analysis", s.handleStartAnalysis)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/admissibility", s.handleRuleAdmissibility)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/evidence", s.handleSubmitEvidence)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/defense", s.handleSubmitDefense)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/judgment-referral", s.handleProceedToJudgment)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/appeals", s.handleFileAppeal)
	s.handle("POST /api/adjudication/v1/appeals/{appeal_id}/counter-arguments", s.handleCounterArguments)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/appeals/judge", s.handleJudgeAppeal)
	s.handle("POST /api/adjudication/v1/cases/{case_id}/reopen", s.handleReopenCase)

	s.handle("POST /api/judgments/v1/sessions", s.handleOpenSession)
	s.handle("GET /api/judgments/v1/sessions/{judgment_id}", s.handleGetSession)
	s.handle("GET /api/judgments/v1/sessions/{judgment_id}/votes", s.handleListVotes)
	s.handle("POST /api/judgments/v1/sessions/{judgment_id}/votes", s.handleCastCommitteeVote)
	s.handle("POST /api/judgments/v1/sessions/{judgment_id}/close", s.handleCloseJudgment)
}

func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	if s.metrics != nil {
		handler = s.metrics.Instrument(pattern, handler)
	}
	s.mux.HandleFunc(pattern, handler)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
