package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	judgmenterrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	judgmenthttp "pleito/contexts/adjudication/judgment-service/transport/http"
)

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireJudgmentActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJudgmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.judgments.Handler.OpenSessionHandler(r.Context(), actor, req)
	if err != nil {
		writeJudgmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgments.Handler.GetSessionHandler(r.Context(), r.PathValue("judgment_id"))
	if err != nil {
		writeJudgmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgments.Handler.ListVotesHandler(r.Context(), r.PathValue("judgment_id"))
	if err != nil {
		writeJudgmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastCommitteeVote(w http.ResponseWriter, r *http.Request) {
	var req judgmenthttp.CastCommitteeVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJudgmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.judgments.Handler.CastVoteHandler(r.Context(), r.PathValue("judgment_id"), req)
	if err != nil {
		writeJudgmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCloseJudgment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireJudgmentActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.CloseJudgmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJudgmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.judgments.Handler.CloseJudgmentHandler(r.Context(), r.PathValue("judgment_id"), actor, req)
	if err != nil {
		writeJudgmentDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.JudgmentsClosed.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireJudgmentActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get("X-User-Id")
	if actor == "" {
		writeJudgmentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actor, true
}

func writeJudgmentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, judgmenterrors.ErrInvalidJudgmentInput):
		writeJudgmentError(w, http.StatusBadRequest, "invalid_judgment_input", err.Error())
	case errors.Is(err, judgmenterrors.ErrSessionNotFound):
		writeJudgmentError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, judgmenterrors.ErrSessionAlreadyOpen),
		errors.Is(err, judgmenterrors.ErrSessionClosed):
		writeJudgmentError(w, http.StatusConflict, "session_conflict", err.Error())
	case errors.Is(err, judgmenterrors.ErrCaseNotReady):
		writeJudgmentError(w, http.StatusConflict, "case_not_ready", err.Error())
	case errors.Is(err, judgmenterrors.ErrMemberNotOnCommittee),
		errors.Is(err, judgmenterrors.ErrMemberInactive),
		errors.Is(err, judgmenterrors.ErrCredentialInactive),
		errors.Is(err, judgmenterrors.ErrTieBreakNotAllowed):
		writeJudgmentError(w, http.StatusForbidden, "vote_not_allowed", err.Error())
	case errors.Is(err, judgmenterrors.ErrQuorumNotReached):
		writeJudgmentError(w, http.StatusUnprocessableEntity, "quorum_not_reached", err.Error())
	default:
		writeJudgmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJudgmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, judgmenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
