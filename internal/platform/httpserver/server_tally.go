package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	tallyerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
	tallyhttp "pleito/contexts/electoral-process/tally-engine/transport/http"
)

func (s *Server) handleComputeResult(w http.ResponseWriter, r *http.Request) {
	var req tallyhttp.ComputeResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTallyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.tally.Handler.ComputeResultHandler(r.Context(), r.PathValue("election_id"), req)
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.TalliesComputed.WithLabelValues(resp.Kind).Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.GetResultHandler(r.Context(), r.PathValue("result_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.LatestResultHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.ListResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTallyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tallyerrors.ErrInvalidTallyInput):
		writeTallyError(w, http.StatusBadRequest, "invalid_tally_input", err.Error())
	case errors.Is(err, tallyerrors.ErrElectionNotFound),
		errors.Is(err, tallyerrors.ErrResultNotFound):
		writeTallyError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, tallyerrors.ErrAdjudicationPending):
		writeTallyError(w, http.StatusConflict, "adjudication_pending", err.Error())
	default:
		writeTallyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTallyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, tallyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
