package commands

import (
	"context"
	"strings"

	application "pleito/contexts/adjudication/case-service/application"
	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/internal/shared/deadline"
)

type SubmitEvidenceCommand struct {
	CaseID      string
	SubmittedBy string
	Filename    string
	Data        []byte
	Note        string
}

// SubmitEvidence stores the document bytes in the document store and
// attaches only the returned reference to the case file.
func (uc CaseUseCase) SubmitEvidence(ctx context.Context, cmd SubmitEvidenceCommand) (entities.Evidence, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	submittedBy := strings.TrimSpace(cmd.SubmittedBy)
	if caseID == "" || submittedBy == "" || len(cmd.Data) == 0 {
		return entities.Evidence{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Evidence{}, err
	}
	if current.Status == entities.StatusArchived || current.Status == entities.StatusAppealJudged {
		return entities.Evidence{}, domainerrors.ErrCaseTerminal
	}

	if uc.Documents == nil {
		return entities.Evidence{}, domainerrors.ErrDocumentStoreFailure
	}
	url, err := uc.Documents.StoreEvidence(ctx, strings.TrimSpace(cmd.Filename), cmd.Data)
	if err != nil {
		return entities.Evidence{}, err
	}

	evidenceID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Evidence{}, err
	}
	evidence := entities.Evidence{
		EvidenceID:  evidenceID,
		CaseID:      caseID,
		SubmittedBy: submittedBy,
		DocumentURL: url,
		Note:        strings.TrimSpace(cmd.Note),
		SubmittedAt: uc.now(),
	}
	if err := uc.Cases.AppendEvidence(ctx, evidence); err != nil {
		return entities.Evidence{}, err
	}

	logger.Info("evidence attached",
		"event", "case_evidence_attached",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"evidence_id", evidence.EvidenceID,
	)
	return evidence, nil
}

type SubmitDefenseCommand struct {
	CaseID       string
	RespondentID string
	Content      string
	DocumentURL  string
}

// SubmitDefense records a respondent defense. A timely submission advances
// the case; an untimely one stays on record flagged untimely and the case
// keeps waiting for ProceedToJudgment under defense_not_submitted
// semantics.
func (uc CaseUseCase) SubmitDefense(ctx context.Context, cmd SubmitDefenseCommand) (entities.Defense, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	respondentID := strings.TrimSpace(cmd.RespondentID)
	content := strings.TrimSpace(cmd.Content)
	if caseID == "" || respondentID == "" || content == "" {
		return entities.Defense{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Defense{}, err
	}
	if current.Status != entities.StatusAwaitingDefense {
		return entities.Defense{}, domainerrors.ErrDefenseWindowClosed
	}

	now := uc.now()
	timely := current.DefenseDeadline != nil && deadline.IsTimely(now, *current.DefenseDeadline)

	defenseID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Defense{}, err
	}
	defense := entities.Defense{
		DefenseID:    defenseID,
		CaseID:       caseID,
		RespondentID: respondentID,
		Content:      content,
		DocumentURL:  strings.TrimSpace(cmd.DocumentURL),
		SubmittedAt:  now,
		Timely:       timely,
	}
	if err := uc.Cases.AppendDefense(ctx, defense); err != nil {
		return entities.Defense{}, err
	}

	if timely {
		updated := current
		updated.Status = entities.StatusDefenseSubmitted
		updated.UpdatedAt = now
		record, err := uc.historyRecord(ctx, updated, current.Status, respondentID, "defense submitted in time")
		if err != nil {
			return entities.Defense{}, err
		}
		if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
			return entities.Defense{}, err
		}
		if err := uc.appendAuditEvent(ctx, "case.defense_submitted", updated, record); err != nil {
			return entities.Defense{}, err
		}
	}

	logger.Info("defense recorded",
		"event", "case_defense_recorded",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"defense_id", defense.DefenseID,
		"timely", timely,
	)
	return defense, nil
}

type FileAppealCommand struct {
	CaseID      string
	AppellantID string
	Grounds     string
}

// FileAppeal opens the appeal sub-flow. An appeal past the deadline stays
// on record flagged untimely, the same treatment defenses get; only a
// timely appeal moves the case to appeal_filed.
func (uc CaseUseCase) FileAppeal(ctx context.Context, cmd FileAppealCommand) (entities.Appeal, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	appellantID := strings.TrimSpace(cmd.AppellantID)
	grounds := strings.TrimSpace(cmd.Grounds)
	if caseID == "" || appellantID == "" || grounds == "" {
		return entities.Appeal{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Appeal{}, err
	}
	if current.Status != entities.StatusAwaitingAppeal {
		return entities.Appeal{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	timely := current.AppealDeadline != nil && deadline.IsTimely(now, *current.AppealDeadline)

	appealID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Appeal{}, err
	}
	appeal := entities.Appeal{
		AppealID:    appealID,
		CaseID:      caseID,
		AppellantID: appellantID,
		Grounds:     grounds,
		FiledAt:     now,
		Timely:      timely,
	}
	if err := uc.Cases.AppendAppeal(ctx, appeal); err != nil {
		return entities.Appeal{}, err
	}

	if timely {
		updated := current
		updated.Status = entities.StatusAppealFiled
		updated.UpdatedAt = now
		record, err := uc.historyRecord(ctx, updated, current.Status, appellantID, "appeal filed")
		if err != nil {
			return entities.Appeal{}, err
		}
		if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
			return entities.Appeal{}, err
		}
		if err := uc.appendAuditEvent(ctx, "case.appeal_filed", updated, record); err != nil {
			return entities.Appeal{}, err
		}
	}

	logger.Info("appeal filed",
		"event", "case_appeal_filed",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"appeal_id", appeal.AppealID,
		"timely", timely,
	)
	return appeal, nil
}

type SubmitCounterArgumentsCommand struct {
	AppealID string
	AuthorID string
	Content  string
}

// SubmitCounterArguments attaches contrarrazões to a pending appeal.
func (uc CaseUseCase) SubmitCounterArguments(ctx context.Context, cmd SubmitCounterArgumentsCommand) (entities.CounterArgument, error) {
	logger := application.ResolveLogger(uc.Logger)
	appealID := strings.TrimSpace(cmd.AppealID)
	authorID := strings.TrimSpace(cmd.AuthorID)
	content := strings.TrimSpace(cmd.Content)
	if appealID == "" || authorID == "" || content == "" {
		return entities.CounterArgument{}, domainerrors.ErrInvalidCaseInput
	}

	appeal, err := uc.Cases.GetAppeal(ctx, appealID)
	if err != nil {
		return entities.CounterArgument{}, err
	}
	current, err := uc.Cases.GetCase(ctx, appeal.CaseID)
	if err != nil {
		return entities.CounterArgument{}, err
	}
	if current.Status != entities.StatusAppealFiled {
		return entities.CounterArgument{}, domainerrors.ErrAppealAlreadyJudged
	}

	counterID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.CounterArgument{}, err
	}
	counter := entities.CounterArgument{
		CounterID: counterID,
		AppealID:  appealID,
		AuthorID:  authorID,
		Content:   content,
		FiledAt:   uc.now(),
	}
	if err := uc.Cases.AppendCounterArgument(ctx, counter); err != nil {
		return entities.CounterArgument{}, err
	}

	logger.Info("counter arguments attached",
		"event", "case_counter_arguments_attached",
		"module", "adjudication/case-service",
		"layer", "application",
		"appeal_id", appealID,
	)
	return counter, nil
}

type JudgeAppealCommand struct {
	CaseID  string
	Actor   string
	Outcome entities.CaseOutcome
	Reason  string
}

// JudgeAppeal closes the appeal sub-flow: appeal_filed -> appeal_judged,
// which is terminal.
func (uc CaseUseCase) JudgeAppeal(ctx context.Context, cmd JudgeAppealCommand) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	actor := strings.TrimSpace(cmd.Actor)
	reason := strings.TrimSpace(cmd.Reason)
	if caseID == "" || actor == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	if reason == "" {
		return entities.Case{}, domainerrors.ErrReasonRequired
	}
	switch cmd.Outcome {
	case entities.OutcomeUpheld, entities.OutcomeDismissed, entities.OutcomePartiallyUpheld:
	default:
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if current.Status != entities.StatusAppealFiled {
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	updated := current
	updated.Status = entities.StatusAppealJudged
	updated.AppealOutcome = cmd.Outcome
	updated.UpdatedAt = now

	record, err := uc.historyRecord(ctx, updated, current.Status, actor, reason)
	if err != nil {
		return entities.Case{}, err
	}
	if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
		return entities.Case{}, err
	}
	if err := uc.appendAuditEvent(ctx, "case.appeal_judged", updated, record); err != nil {
		return entities.Case{}, err
	}
	uc.notify(ctx, "case.appeal_judged", []string{actorOrAnonymous(current.ComplainantID)}, map[string]any{
		"case_id": caseID,
		"outcome": string(cmd.Outcome),
	})

	logger.Info("appeal judged",
		"event", "case_appeal_judged",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"outcome", string(cmd.Outcome),
	)
	return updated, nil
}
