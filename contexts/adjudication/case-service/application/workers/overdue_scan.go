package workers

import (
	"context"
	"log/slog"
	"time"

	application "pleito/contexts/adjudication/case-service/application"
	"pleito/contexts/adjudication/case-service/application/commands"
	"pleito/contexts/adjudication/case-service/ports"
)

// OverdueScan flags cases whose admissibility deadline elapsed without a
// ruling. It only escalates; no status is ever auto-decided.
type OverdueScan struct {
	Cases   ports.CaseRepository
	Usecase commands.CaseUseCase
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (w OverdueScan) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	candidates, err := w.Cases.ListOverdueCandidates(ctx, now)
	if err != nil {
		logger.Error("overdue scan list failed",
			"event", "case_overdue_scan_failed",
			"module", "adjudication/case-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	flagged := 0
	for _, candidate := range candidates {
		if _, err := w.Usecase.FlagOverdue(ctx, candidate.CaseID); err != nil {
			logger.Error("overdue flag failed",
				"event", "case_overdue_flag_failed",
				"module", "adjudication/case-service",
				"layer", "worker",
				"case_id", candidate.CaseID,
				"error", err.Error(),
			)
			return err
		}
		flagged++
	}
	if flagged > 0 {
		logger.Info("overdue scan completed",
			"event", "case_overdue_scan_completed",
			"module", "adjudication/case-service",
			"layer", "worker",
			"flagged_count", flagged,
		)
	}
	return nil
}
