package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	caseerrors "pleito/contexts/adjudication/case-service/domain/errors"
	casehttp "pleito/contexts/adjudication/case-service/transport/http"
)

func (s *Server) handleFileCase(w http.ResponseWriter, r *http.Request) {
	var req casehttp.FileCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	complainantID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if complainantID == "" && !req.Anonymous {
		writeCaseError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required for identified filings")
		return
	}

	resp, err := s.cases.Handler.FileCaseHandler(r.Context(), complainantID, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.CasesFiled.Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cases.Handler.GetCaseHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCaseFile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cases.Handler.GetCaseFileHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cases.Handler.ListCasesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req casehttp.StartAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.StartAnalysisHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuleAdmissibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.RuleAdmissibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.RuleAdmissibilityHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.SubmitEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.SubmitEvidenceHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSubmitDefense(w http.ResponseWriter, r *http.Request) {
	respondent, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.SubmitDefenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.SubmitDefenseHandler(r.Context(), r.PathValue("case_id"), respondent, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleProceedToJudgment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.cases.Handler.ProceedToJudgmentHandler(r.Context(), r.PathValue("case_id"), actor)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFileAppeal(w http.ResponseWriter, r *http.Request) {
	appellant, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.FileAppealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.FileAppealHandler(r.Context(), r.PathValue("case_id"), appellant, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCounterArguments(w http.ResponseWriter, r *http.Request) {
	author, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.CounterArgumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.cases.Handler.CounterArgumentsHandler(r.Context(), r.PathValue("appeal_id"), author, req); err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleJudgeAppeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.JudgeAppealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.JudgeAppealHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReopenCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req casehttp.ReopenCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.cases.Handler.ReopenCaseHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actor == "" {
		writeCaseError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actor, true
}

func writeCaseDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, caseerrors.ErrInvalidCaseInput),
		errors.Is(err, caseerrors.ErrReasonRequired):
		writeCaseError(w, http.StatusBadRequest, "invalid_case_input", err.Error())
	case errors.Is(err, caseerrors.ErrCaseNotFound),
		errors.Is(err, caseerrors.ErrAppealNotFound):
		writeCaseError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, caseerrors.ErrProtocolTaken):
		writeCaseError(w, http.StatusConflict, "protocol_taken", err.Error())
	case errors.Is(err, caseerrors.ErrInvalidTransition),
		errors.Is(err, caseerrors.ErrCaseTerminal),
		errors.Is(err, caseerrors.ErrAppealAlreadyJudged):
		writeCaseError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, caseerrors.ErrDefenseWindowClosed):
		writeCaseError(w, http.StatusUnprocessableEntity, "deadline_missed", err.Error())
	case errors.Is(err, caseerrors.ErrDocumentStoreFailure):
		writeCaseError(w, http.StatusServiceUnavailable, "document_store_unavailable", err.Error())
	default:
		writeCaseError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCaseError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, casehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
