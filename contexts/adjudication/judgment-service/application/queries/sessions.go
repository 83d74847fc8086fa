package queries

import (
	"context"

	"pleito/contexts/adjudication/judgment-service/domain/entities"
	"pleito/contexts/adjudication/judgment-service/ports"
)

type SessionUseCase struct {
	Sessions ports.JudgmentRepository
}

func (uc SessionUseCase) GetSession(ctx context.Context, judgmentID string) (entities.Judgment, error) {
	return uc.Sessions.GetSession(ctx, judgmentID)
}

func (uc SessionUseCase) GetSessionByCase(ctx context.Context, caseID string) (entities.Judgment, bool, error) {
	return uc.Sessions.GetSessionByCase(ctx, caseID)
}

func (uc SessionUseCase) ListVotes(ctx context.Context, judgmentID string) ([]entities.CommitteeVote, error) {
	if _, err := uc.Sessions.GetSession(ctx, judgmentID); err != nil {
		return nil, err
	}
	return uc.Sessions.ListVotes(ctx, judgmentID)
}
