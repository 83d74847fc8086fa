package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pleito/contexts/adjudication/judgment-service/application/commands"
	"pleito/contexts/adjudication/judgment-service/application/queries"
	"pleito/contexts/adjudication/judgment-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/judgment-service/domain/errors"
	httptransport "pleito/contexts/adjudication/judgment-service/transport/http"
)

type Handler struct {
	Judgments commands.JudgmentUseCase
	Sessions  queries.SessionUseCase
	Logger    *slog.Logger
}

func (h Handler) OpenSessionHandler(
	ctx context.Context,
	actorID string,
	req httptransport.OpenSessionRequest,
) (httptransport.JudgmentResponse, error) {
	judgment, err := h.Judgments.OpenSession(ctx, commands.OpenSessionCommand{
		CaseID:      req.CaseID,
		CommitteeID: req.CommitteeID,
		OpenedBy:    actorID,
	})
	if err != nil {
		return httptransport.JudgmentResponse{}, err
	}
	return mapJudgment(judgment), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	judgmentID string,
	req httptransport.CastCommitteeVoteRequest,
) (httptransport.CommitteeVoteResponse, error) {
	vote, err := h.Judgments.CastCommitteeVote(ctx, commands.CastCommitteeVoteCommand{
		JudgmentID:    judgmentID,
		MemberID:      req.MemberID,
		Value:         entities.VoteValue(req.Value),
		Justification: req.Justification,
		TieBreaker:    req.TieBreaker,
	})
	if err != nil {
		return httptransport.CommitteeVoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) CloseJudgmentHandler(
	ctx context.Context,
	judgmentID string,
	actorID string,
	req httptransport.CloseJudgmentRequest,
) (httptransport.JudgmentResponse, error) {
	cmd := commands.CloseJudgmentCommand{
		JudgmentID:   judgmentID,
		Actor:        actorID,
		FullVoidance: req.FullVoidance,
	}
	if strings.TrimSpace(req.EffectiveAt) != "" {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EffectiveAt))
		if err != nil {
			return httptransport.JudgmentResponse{}, domainerrors.ErrInvalidJudgmentInput
		}
		cmd.EffectiveAt = &at
	}
	judgment, err := h.Judgments.CloseJudgment(ctx, cmd)
	if err != nil {
		return httptransport.JudgmentResponse{}, err
	}
	return mapJudgment(judgment), nil
}

func (h Handler) GetSessionHandler(ctx context.Context, judgmentID string) (httptransport.JudgmentResponse, error) {
	judgment, err := h.Sessions.GetSession(ctx, judgmentID)
	if err != nil {
		return httptransport.JudgmentResponse{}, err
	}
	return mapJudgment(judgment), nil
}

func (h Handler) ListVotesHandler(ctx context.Context, judgmentID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Sessions.ListVotes(ctx, judgmentID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.CommitteeVoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func mapJudgment(judgment entities.Judgment) httptransport.JudgmentResponse {
	resp := httptransport.JudgmentResponse{
		JudgmentID:   judgment.JudgmentID,
		CaseID:       judgment.CaseID,
		ElectionID:   judgment.ElectionID,
		CommitteeID:  judgment.CommitteeID,
		Status:       string(judgment.Status),
		OpenedBy:     judgment.OpenedBy,
		OpenedAt:     judgment.OpenedAt.UTC().Format(time.RFC3339Nano),
		Outcome:      string(judgment.Outcome),
		DecisionType: string(judgment.DecisionType),
	}
	if judgment.ClosedAt != nil {
		resp.ClosedAt = judgment.ClosedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

func mapVote(vote entities.CommitteeVote) httptransport.CommitteeVoteResponse {
	return httptransport.CommitteeVoteResponse{
		VoteID:        vote.VoteID,
		JudgmentID:    vote.JudgmentID,
		MemberID:      vote.MemberID,
		Value:         string(vote.Value),
		Justification: vote.Justification,
		TieBreaker:    vote.TieBreaker,
		CastAt:        vote.CastAt.UTC().Format(time.RFC3339Nano),
	}
}
