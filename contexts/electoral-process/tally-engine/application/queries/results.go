package queries

import (
	"context"
	"strings"

	"pleito/contexts/electoral-process/tally-engine/domain/entities"
	domainerrors "pleito/contexts/electoral-process/tally-engine/domain/errors"
	"pleito/contexts/electoral-process/tally-engine/ports"
)

type ResultUseCase struct {
	Results ports.ResultRepository
}

func (uc ResultUseCase) GetResult(ctx context.Context, resultID string) (entities.Result, error) {
	resultID = strings.TrimSpace(resultID)
	if resultID == "" {
		return entities.Result{}, domainerrors.ErrInvalidTallyInput
	}
	return uc.Results.GetResult(ctx, resultID)
}

func (uc ResultUseCase) LatestResult(ctx context.Context, electionID string) (entities.Result, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Result{}, domainerrors.ErrInvalidTallyInput
	}
	result, found, err := uc.Results.GetLatestResult(ctx, electionID)
	if err != nil {
		return entities.Result{}, err
	}
	if !found {
		return entities.Result{}, domainerrors.ErrResultNotFound
	}
	return result, nil
}

func (uc ResultUseCase) ListResults(ctx context.Context, electionID string) ([]entities.Result, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrInvalidTallyInput
	}
	return uc.Results.ListResults(ctx, electionID)
}
