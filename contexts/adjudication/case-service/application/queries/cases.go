package queries

import (
	"context"
	"strings"

	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/contexts/adjudication/case-service/ports"
)

type CaseFile struct {
	Case             entities.Case
	History          []entities.HistoryRecord
	Evidence         []entities.Evidence
	Defenses         []entities.Defense
	Appeals          []entities.Appeal
	CounterArguments []entities.CounterArgument
}

type CaseUseCase struct {
	Cases ports.CaseRepository
}

func (uc CaseUseCase) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	return uc.Cases.GetCase(ctx, caseID)
}

func (uc CaseUseCase) GetCaseByProtocol(ctx context.Context, protocol string) (entities.Case, error) {
	protocol = strings.TrimSpace(protocol)
	if protocol == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	return uc.Cases.GetCaseByProtocol(ctx, protocol)
}

func (uc CaseUseCase) ListCasesByElection(ctx context.Context, electionID string) ([]entities.Case, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrInvalidCaseInput
	}
	return uc.Cases.ListCasesByElection(ctx, electionID)
}

// GetCaseFile assembles the full dossier: case, history, and every
// attached submission.
func (uc CaseUseCase) GetCaseFile(ctx context.Context, caseID string) (CaseFile, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return CaseFile{}, domainerrors.ErrInvalidCaseInput
	}
	c, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return CaseFile{}, err
	}
	history, err := uc.Cases.ListHistory(ctx, caseID)
	if err != nil {
		return CaseFile{}, err
	}
	evidence, err := uc.Cases.ListEvidence(ctx, caseID)
	if err != nil {
		return CaseFile{}, err
	}
	defenses, err := uc.Cases.ListDefenses(ctx, caseID)
	if err != nil {
		return CaseFile{}, err
	}
	appeals, err := uc.Cases.ListAppeals(ctx, caseID)
	if err != nil {
		return CaseFile{}, err
	}
	file := CaseFile{
		Case:     c,
		History:  history,
		Evidence: evidence,
		Defenses: defenses,
		Appeals:  appeals,
	}
	for _, appeal := range appeals {
		counters, err := uc.Cases.ListCounterArguments(ctx, appeal.AppealID)
		if err != nil {
			return CaseFile{}, err
		}
		file.CounterArguments = append(file.CounterArguments, counters...)
	}
	return file, nil
}
