package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "pleito/contexts/adjudication/case-service/application"
	"pleito/contexts/adjudication/case-service/domain/entities"
	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/contexts/adjudication/case-service/ports"
	"pleito/internal/shared/deadline"
)

// DeadlinePolicy carries the procedural windows in calendar days plus the
// exception calendar applied when a deadline lands on a blocked date.
type DeadlinePolicy struct {
	AdmissibilityDays int
	DefenseDays       int
	AppealDays        int
	Calendar          deadline.Calendar
}

func (p DeadlinePolicy) withDefaults() DeadlinePolicy {
	if p.AdmissibilityDays <= 0 {
		p.AdmissibilityDays = 3
	}
	if p.DefenseDays <= 0 {
		p.DefenseDays = 5
	}
	if p.AppealDays <= 0 {
		p.AppealDays = 3
	}
	return p
}

type FileCaseCommand struct {
	ElectionID    string
	Type          entities.CaseType
	SubjectType   entities.SubjectType
	SubjectID     string
	ComplainantID string
	Anonymous     bool
	Summary       string
}

// CaseUseCase drives the case state machine. Every mutation appends history
// and queues an audit event through the outbox.
type CaseUseCase struct {
	Cases     ports.CaseRepository
	Sequencer ports.ProtocolSequencer
	Documents ports.DocumentStore
	Notifier  ports.NotificationDispatcher
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Policy    DeadlinePolicy
	Logger    *slog.Logger
}

// FileCase registers a new proceeding under the next protocol of the
// current year's series. An anonymous filing keeps the complainant off the
// record entirely.
func (uc CaseUseCase) FileCase(ctx context.Context, cmd FileCaseCommand) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	summary := strings.TrimSpace(cmd.Summary)
	complainantID := strings.TrimSpace(cmd.ComplainantID)
	if electionID == "" || summary == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	if cmd.Type != entities.CaseTypeComplaint && cmd.Type != entities.CaseTypeImpugnation {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	subjectID := strings.TrimSpace(cmd.SubjectID)
	if cmd.SubjectType != "" && !cmd.SubjectType.Valid() {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	if (cmd.SubjectType == "") != (subjectID == "") {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	// An impugnation always contests something concrete; a complaint may be
	// filed without naming a subject yet.
	if cmd.Type == entities.CaseTypeImpugnation && subjectID == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	if !cmd.Anonymous && complainantID == "" {
		return entities.Case{}, domainerrors.ErrInvalidCaseInput
	}
	if cmd.Anonymous {
		complainantID = ""
	}

	now := uc.now()
	sequence, err := uc.Sequencer.NextProtocolNumber(ctx, now.Year())
	if err != nil {
		return entities.Case{}, err
	}
	caseID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}
	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Case{}, err
	}

	filed := entities.Case{
		CaseID:        caseID,
		Protocol:      fmt.Sprintf("PLT-%d-%04d", now.Year(), sequence),
		ElectionID:    electionID,
		Type:          cmd.Type,
		SubjectType:   cmd.SubjectType,
		SubjectID:     subjectID,
		ComplainantID: complainantID,
		Anonymous:     cmd.Anonymous,
		Summary:       summary,
		Status:        entities.StatusReceived,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	opening := entities.HistoryRecord{
		HistoryID:  historyID,
		CaseID:     caseID,
		NewStatus:  entities.StatusReceived,
		Actor:      actorOrAnonymous(complainantID),
		Reason:     "case filed",
		OccurredAt: now,
	}
	if err := uc.Cases.CreateCase(ctx, filed, opening); err != nil {
		return entities.Case{}, err
	}

	if err := uc.appendAuditEvent(ctx, "case.filed", filed, opening); err != nil {
		return entities.Case{}, err
	}
	uc.notify(ctx, "case.filed", []string{"electoral-commission"}, map[string]any{
		"case_id":  filed.CaseID,
		"protocol": filed.Protocol,
	})

	logger.Info("case filed",
		"event", "case_filed",
		"module", "adjudication/case-service",
		"layer", "application",
		"case_id", filed.CaseID,
		"protocol", filed.Protocol,
		"case_type", string(filed.Type),
		"anonymous", filed.Anonymous,
	)
	return filed, nil
}

func (uc CaseUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func actorOrAnonymous(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return "anonymous"
	}
	return strings.TrimSpace(actor)
}
