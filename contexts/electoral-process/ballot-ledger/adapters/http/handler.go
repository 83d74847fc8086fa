package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"pleito/contexts/electoral-process/ballot-ledger/application/commands"
	"pleito/contexts/electoral-process/ballot-ledger/application/queries"
	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	httptransport "pleito/contexts/electoral-process/ballot-ledger/transport/http"
)

type Handler struct {
	Ledger   commands.LedgerUseCase
	Receipts queries.ReceiptUseCase
	Logger   *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	electorID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID: req.ElectionID,
		ElectorID:  electorID,
		Kind:       entities.VoteKind(req.VoteKind),
		SlateID:    req.SlateID,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		BallotID:   result.Ballot.BallotID,
		ElectionID: result.Ballot.ElectionID,
		VoteKind:   string(result.Ballot.Kind),
		CastAt:     result.Ballot.CastAt.UTC().Format(time.RFC3339Nano),
		Receipt:    result.Receipt,
	}, nil
}

func (h Handler) VerifyReceiptHandler(
	ctx context.Context,
	electorID string,
	req httptransport.VerifyReceiptRequest,
) (httptransport.VerifyReceiptResponse, error) {
	verification, err := h.Receipts.VerifyReceipt(ctx, req.ElectionID, electorID, req.Receipt)
	if err != nil {
		return httptransport.VerifyReceiptResponse{}, err
	}
	resp := httptransport.VerifyReceiptResponse{Included: verification.Included}
	if verification.Included {
		resp.CastAt = verification.CastAt.UTC().Format(time.RFC3339Nano)
	}
	return resp, nil
}

func (h Handler) VoidBallotHandler(
	ctx context.Context,
	ballotID string,
	req httptransport.VoidBallotRequest,
) (httptransport.BallotResponse, error) {
	voided, err := h.Ledger.VoidBallot(ctx, commands.VoidBallotCommand{
		BallotID:     ballotID,
		ReasonCaseID: req.CaseID,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(voided), nil
}

func mapBallot(ballot entities.Ballot) httptransport.BallotResponse {
	resp := httptransport.BallotResponse{
		BallotID:     ballot.BallotID,
		ElectionID:   ballot.ElectionID,
		SlateID:      ballot.SlateID,
		VoteKind:     string(ballot.Kind),
		CastAt:       ballot.CastAt.UTC().Format(time.RFC3339Nano),
		VoidedByCase: ballot.VoidedByCaseID,
	}
	if ballot.Voided() {
		resp.OriginalKind = string(ballot.OriginalKind)
	}
	if ballot.VoidedAt != nil {
		resp.VoidedAt = ballot.VoidedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}
