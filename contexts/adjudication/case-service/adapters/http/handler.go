package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"pleito/contexts/adjudication/case-service/application/commands"
	"pleito/contexts/adjudication/case-service/application/queries"
	"pleito/contexts/adjudication/case-service/domain/entities"
	httptransport "pleito/contexts/adjudication/case-service/transport/http"
)

type Handler struct {
	Cases   commands.CaseUseCase
	Queries queries.CaseUseCase
	Logger  *slog.Logger
}

func (h Handler) FileCaseHandler(
	ctx context.Context,
	complainantID string,
	req httptransport.FileCaseRequest,
) (httptransport.CaseResponse, error) {
	filed, err := h.Cases.FileCase(ctx, commands.FileCaseCommand{
		ElectionID:    req.ElectionID,
		Type:          entities.CaseType(req.CaseType),
		SubjectType:   entities.SubjectType(req.SubjectType),
		SubjectID:     req.SubjectID,
		ComplainantID: complainantID,
		Anonymous:     req.Anonymous,
		Summary:       req.Summary,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(filed), nil
}

func (h Handler) StartAnalysisHandler(
	ctx context.Context,
	caseID string,
	req httptransport.StartAnalysisRequest,
) (httptransport.CaseResponse, error) {
	updated, err := h.Cases.StartAnalysis(ctx, commands.StartAnalysisCommand{
		CaseID:    caseID,
		AnalystID: req.AnalystID,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(updated), nil
}

func (h Handler) RuleAdmissibilityHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.RuleAdmissibilityRequest,
) (httptransport.CaseResponse, error) {
	updated, err := h.Cases.RuleAdmissibility(ctx, commands.RuleAdmissibilityCommand{
		CaseID:   caseID,
		Actor:    actor,
		Accepted: req.Accepted,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(updated), nil
}

func (h Handler) SubmitEvidenceHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.SubmitEvidenceRequest,
) (httptransport.EvidenceResponse, error) {
	evidence, err := h.Cases.SubmitEvidence(ctx, commands.SubmitEvidenceCommand{
		CaseID:      caseID,
		SubmittedBy: actor,
		Filename:    req.Filename,
		Data:        req.Data,
		Note:        req.Note,
	})
	if err != nil {
		return httptransport.EvidenceResponse{}, err
	}
	return httptransport.EvidenceResponse{
		EvidenceID:  evidence.EvidenceID,
		CaseID:      evidence.CaseID,
		DocumentURL: evidence.DocumentURL,
		Note:        evidence.Note,
		SubmittedAt: evidence.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (h Handler) SubmitDefenseHandler(
	ctx context.Context,
	caseID string,
	respondentID string,
	req httptransport.SubmitDefenseRequest,
) (httptransport.DefenseResponse, error) {
	defense, err := h.Cases.SubmitDefense(ctx, commands.SubmitDefenseCommand{
		CaseID:       caseID,
		RespondentID: respondentID,
		Content:      req.Content,
		DocumentURL:  req.DocumentURL,
	})
	if err != nil {
		return httptransport.DefenseResponse{}, err
	}
	return httptransport.DefenseResponse{
		DefenseID:   defense.DefenseID,
		CaseID:      defense.CaseID,
		SubmittedAt: defense.SubmittedAt.UTC().Format(time.RFC3339Nano),
		Timely:      defense.Timely,
	}, nil
}

func (h Handler) ProceedToJudgmentHandler(
	ctx context.Context,
	caseID string,
	actor string,
) (httptransport.CaseResponse, error) {
	updated, err := h.Cases.ProceedToJudgment(ctx, commands.ProceedToJudgmentCommand{
		CaseID: caseID,
		Actor:  actor,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(updated), nil
}

func (h Handler) FileAppealHandler(
	ctx context.Context,
	caseID string,
	appellantID string,
	req httptransport.FileAppealRequest,
) (httptransport.AppealResponse, error) {
	appeal, err := h.Cases.FileAppeal(ctx, commands.FileAppealCommand{
		CaseID:      caseID,
		AppellantID: appellantID,
		Grounds:     req.Grounds,
	})
	if err != nil {
		return httptransport.AppealResponse{}, err
	}
	return httptransport.AppealResponse{
		AppealID: appeal.AppealID,
		CaseID:   appeal.CaseID,
		FiledAt:  appeal.FiledAt.UTC().Format(time.RFC3339Nano),
		Timely:   appeal.Timely,
	}, nil
}

func (h Handler) CounterArgumentsHandler(
	ctx context.Context,
	appealID string,
	authorID string,
	req httptransport.CounterArgumentsRequest,
) error {
	_, err := h.Cases.SubmitCounterArguments(ctx, commands.SubmitCounterArgumentsCommand{
		AppealID: appealID,
		AuthorID: authorID,
		Content:  req.Content,
	})
	return err
}

func (h Handler) JudgeAppealHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.JudgeAppealRequest,
) (httptransport.CaseResponse, error) {
	updated, err := h.Cases.JudgeAppeal(ctx, commands.JudgeAppealCommand{
		CaseID:  caseID,
		Actor:   actor,
		Outcome: entities.CaseOutcome(req.Outcome),
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(updated), nil
}

func (h Handler) ReopenCaseHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.ReopenCaseRequest,
) (httptransport.CaseResponse, error) {
	updated, err := h.Cases.ReopenCase(ctx, commands.ReopenCaseCommand{
		CaseID: caseID,
		Actor:  actor,
		Reason: req.Reason,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(updated), nil
}

func (h Handler) GetCaseHandler(ctx context.Context, caseID string) (httptransport.CaseResponse, error) {
	c, err := h.Queries.GetCase(ctx, caseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(c), nil
}

func (h Handler) GetCaseFileHandler(ctx context.Context, caseID string) (httptransport.CaseFileResponse, error) {
	file, err := h.Queries.GetCaseFile(ctx, caseID)
	if err != nil {
		return httptransport.CaseFileResponse{}, err
	}
	resp := httptransport.CaseFileResponse{
		Case:     mapCase(file.Case),
		History:  make([]httptransport.HistoryItem, 0, len(file.History)),
		Evidence: make([]httptransport.EvidenceResponse, 0, len(file.Evidence)),
		Defenses: make([]httptransport.DefenseResponse, 0, len(file.Defenses)),
		Appeals:  make([]httptransport.AppealResponse, 0, len(file.Appeals)),
	}
	for _, record := range file.History {
		resp.History = append(resp.History, httptransport.HistoryItem{
			PreviousStatus: string(record.PreviousStatus),
			NewStatus:      string(record.NewStatus),
			Actor:          record.Actor,
			Reason:         record.Reason,
			OccurredAt:     record.OccurredAt.UTC().Format(time.RFC3339Nano),
		})
	}
	for _, evidence := range file.Evidence {
		resp.Evidence = append(resp.Evidence, httptransport.EvidenceResponse{
			EvidenceID:  evidence.EvidenceID,
			CaseID:      evidence.CaseID,
			DocumentURL: evidence.DocumentURL,
			Note:        evidence.Note,
			SubmittedAt: evidence.SubmittedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	for _, defense := range file.Defenses {
		resp.Defenses = append(resp.Defenses, httptransport.DefenseResponse{
			DefenseID:   defense.DefenseID,
			CaseID:      defense.CaseID,
			SubmittedAt: defense.SubmittedAt.UTC().Format(time.RFC3339Nano),
			Timely:      defense.Timely,
		})
	}
	for _, appeal := range file.Appeals {
		resp.Appeals = append(resp.Appeals, httptransport.AppealResponse{
			AppealID: appeal.AppealID,
			CaseID:   appeal.CaseID,
			FiledAt:  appeal.FiledAt.UTC().Format(time.RFC3339Nano),
			Timely:   appeal.Timely,
		})
	}
	return resp, nil
}

func (h Handler) ListCasesHandler(ctx context.Context, electionID string) (httptransport.CaseListResponse, error) {
	cases, err := h.Queries.ListCasesByElection(ctx, electionID)
	if err != nil {
		return httptransport.CaseListResponse{}, err
	}
	items := make([]httptransport.CaseResponse, 0, len(cases))
	for _, c := range cases {
		items = append(items, mapCase(c))
	}
	return httptransport.CaseListResponse{Items: items}, nil
}

func mapCase(c entities.Case) httptransport.CaseResponse {
	resp := httptransport.CaseResponse{
		CaseID:        c.CaseID,
		Protocol:      c.Protocol,
		ElectionID:    c.ElectionID,
		CaseType:      string(c.Type),
		SubjectType:   string(c.SubjectType),
		SubjectID:     c.SubjectID,
		Anonymous:     c.Anonymous,
		Summary:       c.Summary,
		Status:        string(c.Status),
		Overdue:       c.Overdue,
		AnalystID:     c.AnalystID,
		JudgmentID:    c.JudgmentID,
		Outcome:       string(c.Outcome),
		AppealOutcome: string(c.AppealOutcome),
		ReopenCount:   c.ReopenCount,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if c.AdmissibilityDeadline != nil {
		resp.AdmissibilityDeadline = c.AdmissibilityDeadline.UTC().Format(time.RFC3339Nano)
	}
	if c.DefenseDeadline != nil {
		resp.DefenseDeadline = c.DefenseDeadline.UTC().Format(time.RFC3339Nano)
	}
	if c.AppealDeadline != nil {
		resp.AppealDeadline = c.AppealDeadline.UTC().Format(time.RFC3339Nano)
	}
	return resp
}
