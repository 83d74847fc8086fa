package commands

import (
	"context"
	"strings"

	application "pleito/contexts/adjudication/case-service/application"
	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/internal/shared/deadline"
)

type StartAnalysisCommand struct {
	CaseID    string
	AnalystID string
}

// StartAnalysis is the analyst pickup: received -> under_analysis. It
// records the analyst and opens the admissibility deadline clock.
func (uc CaseUseCase) StartAnalysis(ctx context.Context, cmd StartAnalysisCommand) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	analystID := strings.TrimSpace(cmd.AnalystID)
	if caseID == "" || analystID == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if current.Status != entities.StatusReceived {
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	policy := uc.Policy.withDefaults()
	admissibilityDeadline := deadline.Compute(now, policy.AdmissibilityDays, policy.Calendar)

	updated := current
	updated.Status = entities.StatusUnderAnalysis
	updated.AnalystID = analystID
	updated.AdmissibilityDeadline = &admissibilityDeadline
	updated.UpdatedAt = now

	record, err := uc.historyRecord(ctx, updated, current.Status, analystID, "analysis started")
	if err != nil {
		return entities.Case{}, err
	}
	if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
		return entities.Case{}, err
	}
	if err := uc.appendAuditEvent(ctx, "case.analysis_started", updated, record); err != nil {
		return entities.Case{}, err
	}

	logger.Info("case analysis started",
		"event", "case_analysis_started",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"analyst_id", analystID,
		"admissibility_deadline", admissibilityDeadline,
	)
	return updated, nil
}

type RuleAdmissibilityCommand struct {
	CaseID   string
	Actor    string
	Accepted bool
	Reason   string
}

// RuleAdmissibility decides admissibility. Acceptance opens the defense
// window; rejection archives the case. An elapsed admissibility deadline
// never auto-decides: the explicit ruling is still required, the case only
// carries the overdue flag meanwhile.
func (uc CaseUseCase) RuleAdmissibility(ctx context.Context, cmd RuleAdmissibilityCommand) (entities.Case, error) {
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

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if current.Status != entities.StatusUnderAnalysis {
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	updated := current
	updated.UpdatedAt = now

	var records []entities.HistoryRecord
	if cmd.Accepted {
		policy := uc.Policy.withDefaults()
		defenseDeadline := deadline.Compute(now, policy.DefenseDays, policy.Calendar)
		updated.Status = entities.StatusAdmissibilityAccepted
		ruling, err := uc.historyRecord(ctx, updated, current.Status, actor, reason)
		if err != nil {
			return entities.Case{}, err
		}
		updated.DefenseDeadline = &defenseDeadline
		previous := updated.Status
		updated.Status = entities.StatusAwaitingDefense
		opened, err := uc.historyRecord(ctx, updated, previous, actor, "defense window opened")
		if err != nil {
			return entities.Case{}, err
		}
		records = []entities.HistoryRecord{ruling, opened}
	} else {
		updated.Status = entities.StatusAdmissibilityRejected
		ruling, err := uc.historyRecord(ctx, updated, current.Status, actor, reason)
		if err != nil {
			return entities.Case{}, err
		}
		previous := updated.Status
		updated.Status = entities.StatusArchived
		archived, err := uc.historyRecord(ctx, updated, previous, actor, "archived after admissibility rejection")
		if err != nil {
			return entities.Case{}, err
		}
		records = []entities.HistoryRecord{ruling, archived}
	}

	if err := uc.Cases.UpdateCase(ctx, updated, records); err != nil {
		return entities.Case{}, err
	}
	for _, record := range records {
		if err := uc.appendAuditEvent(ctx, "case.admissibility_ruled", updated, record); err != nil {
			return entities.Case{}, err
		}
	}
	uc.notify(ctx, "case.admissibility_ruled", []string{actorOrAnonymous(current.ComplainantID)}, map[string]any{
		"case_id":  caseID,
		"protocol": current.Protocol,
		"accepted": cmd.Accepted,
	})

	logger.Info("admissibility ruled",
		"event", "case_admissibility_ruled",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"accepted", cmd.Accepted,
		"status", string(updated.Status),
	)
	return updated, nil
}

type ProceedToJudgmentCommand struct {
	CaseID string
	Actor  string
}

// ProceedToJudgment moves the case to the committee docket: from
// defense_submitted directly, or from awaiting_defense once the defense
// deadline elapsed, recording defense_not_submitted on the way.
func (uc CaseUseCase) ProceedToJudgment(ctx context.Context, cmd ProceedToJudgmentCommand) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	caseID := strings.TrimSpace(cmd.CaseID)
	actor := strings.TrimSpace(cmd.Actor)
	if caseID == "" || actor == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}

	now := uc.now()
	updated := current
	updated.UpdatedAt = now
	var records []entities.HistoryRecord

	switch current.Status {
	case entities.StatusDefenseSubmitted:
		updated.Status = entities.StatusAwaitingJudgment
		record, err := uc.historyRecord(ctx, updated, current.Status, actor, "sent to judgment")
		if err != nil {
			return entities.Case{}, err
		}
		records = []entities.HistoryRecord{record}
	case entities.StatusAwaitingDefense:
		if current.DefenseDeadline == nil || !now.After(*current.DefenseDeadline) {
			return entities.Case{}, domainerrors.ErrInvalidTransition
		}
		updated.Status = entities.StatusDefenseNotSubmitted
		lapsed, err := uc.historyRecord(ctx, updated, current.Status, actor, "defense deadline elapsed without timely submission")
		if err != nil {
			return entities.Case{}, err
		}
		previous := updated.Status
		updated.Status = entities.StatusAwaitingJudgment
		sent, err := uc.historyRecord(ctx, updated, previous, actor, "sent to judgment")
		if err != nil {
			return entities.Case{}, err
		}
		records = []entities.HistoryRecord{lapsed, sent}
	default:
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}

	if err := uc.Cases.UpdateCase(ctx, updated, records); err != nil {
		return entities.Case{}, err
	}
	for _, record := range records {
		if err := uc.appendAuditEvent(ctx, "case.sent_to_judgment", updated, record); err != nil {
			return entities.Case{}, err
		}
	}

	logger.Info("case sent to judgment",
		"event", "case_sent_to_judgment",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
	)
	return updated, nil
}

type ReopenCaseCommand struct {
	CaseID string
	Actor  string
	Reason string
}

// ReopenCase is the only transition out of a terminal status. The
// justification is mandatory and the full prior history is preserved.
func (uc CaseUseCase) ReopenCase(ctx context.Context, cmd ReopenCaseCommand) (entities.Case, error) {
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

	current, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Case{}, err
	}
	if !current.Terminal() {
		return entities.Case{}, domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	policy := uc.Policy.withDefaults()
	admissibilityDeadline := deadline.Compute(now, policy.AdmissibilityDays, policy.Calendar)

	updated := current
	updated.Status = entities.StatusUnderAnalysis
	updated.Overdue = false
	updated.AdmissibilityDeadline = &admissibilityDeadline
	updated.ReopenCount++
	updated.UpdatedAt = now

	record, err := uc.historyRecord(ctx, updated, current.Status, actor, reason)
	if err != nil {
		return entities.Case{}, err
	}
	if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
		return entities.Case{}, err
	}
	if err := uc.appendAuditEvent(ctx, "case.reopened", updated, record); err != nil {
		return entities.Case{}, err
	}

	logger.Info("case reopened",
		"event", "case_reopened",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", caseID,
		"reopen_count", updated.ReopenCount,
	)
	return updated, nil
}

// FlagOverdue marks one case overdue for escalation. It never changes the
// status: an explicit ruling remains required.
func (uc CaseUseCase) FlagOverdue(ctx context.Context, caseID string) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	current, err := uc.Cases.GetCase(ctx, strings.TrimSpace(caseID))
	if err != nil {
		return entities.Case{}, err
	}
	if current.Overdue || current.Status != entities.StatusUnderAnalysis {
		return current, nil
	}
	if current.AdmissibilityDeadline == nil || !uc.now().After(*current.AdmissibilityDeadline) {
		return current, nil
	}

	now := uc.now()
	updated := current
	updated.Overdue = true
	updated.UpdatedAt = now

	record, err := uc.historyRecord(ctx, updated, current.Status, "scheduler", "admissibility deadline elapsed, flagged for escalation")
	if err != nil {
		return entities.Case{}, err
	}
	if err := uc.Cases.UpdateCase(ctx, updated, []entities.HistoryRecord{record}); err != nil {
		return entities.Case{}, err
	}
	if err := uc.appendAuditEvent(ctx, "case.overdue", updated, record); err != nil {
		return entities.Case{}, err
	}
	uc.notify(ctx, "case.overdue", []string{"electoral-commission", updated.AnalystID}, map[string]any{
		"case_id":  updated.CaseID,
		"protocol": updated.Protocol,
	})

	logger.Warn("case flagged overdue",
		"event", "case_flagged_overdue",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", updated.CaseID,
		"analyst_id", updated.AnalystID,
	)
	return updated, nil
}

func (uc CaseUseCase) historyRecord(
	ctx context.Context,
	c entities.Case,
	previous entities.CaseStatus,
	actor string,
	reason string,
) (entities.HistoryRecord, error) {
	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.HistoryRecord{}, err
	}
	return entities.HistoryRecord{
		HistoryID:      historyID,
		CaseID:         c.CaseID,
		PreviousStatus: previous,
		NewStatus:      c.Status,
		Actor:          actor,
		Reason:         reason,
		OccurredAt:     c.UpdatedAt,
	}, nil
}
