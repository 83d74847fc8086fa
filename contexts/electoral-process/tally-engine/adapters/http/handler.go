package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"pleito/contexts/electoral-process/tally-engine/application/commands"
	"pleito/contexts/electoral-process/tally-engine/application/queries"
	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	httptransport "pleito/contexts/electoral-process/tally-engine/transport/http"
)

type Handler struct {
	Tally   commands.TallyUseCase
	Results queries.ResultUseCase
	Logger  *slog.Logger
}

func (h Handler) ComputeResultHandler(
	ctx context.Context,
	electionID string,
	req httptransport.ComputeResultRequest,
) (httptransport.ResultResponse, error) {
	result, err := h.Tally.ComputeResult(ctx, commands.ComputeResultCommand{
		ElectionID: electionID,
		Kind:       entities.ResultKind(req.Kind),
	})
	if err != nil {
		return httptransport.ResultResponse{}, err
	}
	return mapResult(result), nil
}

func (h Handler) GetResultHandler(ctx context.Context, resultID string) (httptransport.ResultResponse, error) {
	result, err := h.Results.GetResult(ctx, resultID)
	if err != nil {
		return httptransport.ResultResponse{}, err
	}
	return mapResult(result), nil
}

func (h Handler) LatestResultHandler(ctx context.Context, electionID string) (httptransport.ResultResponse, error) {
	result, err := h.Results.LatestResult(ctx, electionID)
	if err != nil {
		return httptransport.ResultResponse{}, err
	}
	return mapResult(result), nil
}

func (h Handler) ListResultsHandler(ctx context.Context, electionID string) (httptransport.ResultListResponse, error) {
	results, err := h.Results.ListResults(ctx, electionID)
	if err != nil {
		return httptransport.ResultListResponse{}, err
	}
	items := make([]httptransport.ResultResponse, 0, len(results))
	for _, result := range results {
		items = append(items, mapResult(result))
	}
	return httptransport.ResultListResponse{Items: items}, nil
}

func mapResult(result entities.Result) httptransport.ResultResponse {
	lines := make([]httptransport.ResultLineItem, 0, len(result.Lines))
	for _, line := range result.Lines {
		lines = append(lines, httptransport.ResultLineItem{
			SlateID:     line.SlateID,
			SlateNumber: line.SlateNumber,
			SlateName:   line.SlateName,
			Votes:       line.Votes,
			Percentage:  line.Percentage,
			Rank:        line.Rank,
			Elected:     line.Elected,
		})
	}
	return httptransport.ResultResponse{
		ResultID:         result.ResultID,
		ElectionID:       result.ElectionID,
		Kind:             string(result.Kind),
		ComputedAt:       result.ComputedAt.UTC().Format(time.RFC3339Nano),
		EligibleElectors: result.EligibleElectors,
		TotalBallots:     result.TotalBallots,
		Voters:           result.Voters,
		SlateVotes:       result.SlateVotes,
		BlankVotes:       result.BlankVotes,
		NullVotes:        result.NullVotes,
		VoidedBallots:    result.VoidedBallots,
		BlankPct:         result.BlankPercentage(),
		ParticipationPct: result.ParticipationPct,
		AbstentionPct:    result.AbstentionPct,
		Lines:            lines,
		SupersedesID:     result.SupersedesID,
		Invalidated:      result.Invalidated,
	}
}
