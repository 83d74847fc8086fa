package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	ledgererrors "pleito/contexts/electoral-process/ballot-ledger/domain/errors"
	ledgerhttp "pleito/contexts/electoral-process/ballot-ledger/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	electorID := strings.TrimSpace(r.Header.Get("X-Elector-Id"))
	if electorID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_elector", "X-Elector-Id header is required")
		return
	}

	var req ledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), electorID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.BallotsCast.Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	electorID := strings.TrimSpace(r.Header.Get("X-Elector-Id"))
	if electorID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_elector", "X-Elector-Id header is required")
		return
	}

	var req ledgerhttp.VerifyReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.VerifyReceiptHandler(r.Context(), electorID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoidBallot(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.VoidBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.VoidBallotHandler(r.Context(), r.PathValue("ballot_id"), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.BallotsVoided.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidBallotInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_ballot_input", err.Error())
	case errors.Is(err, ledgererrors.ErrElectionNotFound),
		errors.Is(err, ledgererrors.ErrBallotNotFound),
		errors.Is(err, ledgererrors.ErrSlateNotFound):
		writeLedgerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrElectionNotInVotingPhase),
		errors.Is(err, ledgererrors.ErrVotingWindowClosed):
		writeLedgerError(w, http.StatusConflict, "voting_closed", err.Error())
	case errors.Is(err, ledgererrors.ErrElectorNotEligible):
		writeLedgerError(w, http.StatusForbidden, "elector_not_eligible", err.Error())
	case errors.Is(err, ledgererrors.ErrSlateNotEligible):
		writeLedgerError(w, http.StatusUnprocessableEntity, "slate_not_eligible", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateVote),
		errors.Is(err, ledgererrors.ErrBallotAlreadyVoided):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrEligibilityUnavailable):
		writeLedgerError(w, http.StatusServiceUnavailable, "eligibility_unavailable", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
