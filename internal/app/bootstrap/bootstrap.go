package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	caseservice "pleito/contexts/adjudication/case-service"
	casefs "pleito/contexts/adjudication/case-service/adapters/fs"
	"pleito/contexts/adjudication/case-service/adapters/notify"
	casepostgres "pleito/contexts/adjudication/case-service/adapters/postgres"
	casecommands "pleito/contexts/adjudication/case-service/application/commands"
	caseworkers "pleito/contexts/adjudication/case-service/application/workers"
	judgmentservice "pleito/contexts/adjudication/judgment-service"
	judgmentpostgres "pleito/contexts/adjudication/judgment-service/adapters/postgres"
	judgmentworkers "pleito/contexts/adjudication/judgment-service/application/workers"
	ballotledger "pleito/contexts/electoral-process/ballot-ledger"
	ledgerpostgres "pleito/contexts/electoral-process/ballot-ledger/adapters/postgres"
	ledgerworkers "pleito/contexts/electoral-process/ballot-ledger/application/workers"
	tallybridge "pleito/contexts/electoral-process/tally-bridge"
	bridgelocal "pleito/contexts/electoral-process/tally-bridge/adapters/local"
	bridgepostgres "pleito/contexts/electoral-process/tally-bridge/adapters/postgres"
	tallyengine "pleito/contexts/electoral-process/tally-engine"
	tallypostgres "pleito/contexts/electoral-process/tally-engine/adapters/postgres"
	tallyworkers "pleito/contexts/electoral-process/tally-engine/application/workers"
	"pleito/internal/platform/config"
	"pleito/internal/platform/db"
	"pleito/internal/platform/httpserver"
	"pleito/internal/platform/messaging"
	"pleito/internal/platform/metrics"

	"github.com/robfig/cron"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	bus      *messaging.Kafka

	ledgerRelay   ledgerworkers.OutboxRelay
	tallyRelay    tallyworkers.OutboxRelay
	caseRelay     caseworkers.OutboxRelay
	judgmentRelay judgmentworkers.OutboxRelay
	overdueScan   caseworkers.OverdueScan
	bridge        tallybridge.Module

	pollInterval    time.Duration
	overdueScanSpec string
	logger          *slog.Logger
}

type modules struct {
	ledger    ballotledger.Module
	tally     tallyengine.Module
	cases     caseservice.Module
	judgments judgmentservice.Module
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) (modules, error) {
	calendar, err := config.LoadCalendar(cfg.CalendarFile)
	if err != nil {
		return modules{}, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := ballotledger.NewModule(ballotledger.Dependencies{
		Ballots:       ledgerRepo,
		Elections:     ledgerRepo,
		Eligibility:   ledgerpostgres.NewRosterClient(pg.DB, logger),
		Outbox:        ledgerRepo,
		Clock:         ledgerpostgres.SystemClock{},
		IDGen:         ledgerpostgres.UUIDGenerator{},
		ReceiptSecret: cfg.ReceiptSecret,
		Logger:        logger,
	})

	tallyRepo := tallypostgres.NewRepository(pg.DB, logger)
	tallyModule := tallyengine.NewModule(tallyengine.Dependencies{
		Ledger:  tallyRepo,
		Results: tallyRepo,
		Cases:   tallyRepo,
		Outbox:  tallyRepo,
		Clock:   tallypostgres.SystemClock{},
		IDGen:   tallypostgres.UUIDGenerator{},
		Logger:  logger,
	})

	documents, err := casefs.NewDocumentStore(cfg.EvidenceDir)
	if err != nil {
		return modules{}, err
	}
	caseRepo := casepostgres.NewRepository(pg.DB, logger)
	caseModule := caseservice.NewModule(caseservice.Dependencies{
		Cases:     caseRepo,
		Sequencer: caseRepo,
		Documents: documents,
		Notifier:  notify.LogDispatcher{Logger: logger},
		Outbox:    caseRepo,
		Clock:     casepostgres.SystemClock{},
		IDGen:     casepostgres.UUIDGenerator{},
		Policy: casecommands.DeadlinePolicy{
			AdmissibilityDays: cfg.AdmissibilityWindowDays,
			DefenseDays:       cfg.DefenseWindowDays,
			AppealDays:        cfg.AppealWindowDays,
			Calendar:          calendar,
		},
		Logger: logger,
	})

	judgmentRepo := judgmentpostgres.NewRepository(pg.DB, logger)
	judgmentModule := judgmentservice.NewModule(judgmentservice.Dependencies{
		Sessions:    judgmentRepo,
		Cases:       judgmentRepo,
		Members:     judgmentRepo,
		Credentials: judgmentRepo,
		Clock:       judgmentpostgres.SystemClock{},
		IDGen:       judgmentpostgres.UUIDGenerator{},
		AppealDays:  cfg.AppealWindowDays,
		Calendar:    calendar,
		Logger:      logger,
	})

	return modules{
		ledger:    ledgerModule,
		tally:     tallyModule,
		cases:     caseModule,
		judgments: judgmentModule,
	}, nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	mods, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	server := httpserver.New(
		mods.ledger,
		mods.tally,
		mods.cases,
		mods.judgments,
		metrics.New(cfg.ServiceName),
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	mods, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	tallyRepo := tallypostgres.NewRepository(pg.DB, logger)
	caseRepo := casepostgres.NewRepository(pg.DB, logger)
	judgmentRepo := judgmentpostgres.NewRepository(pg.DB, logger)

	bridge := tallybridge.NewModule(tallybridge.Dependencies{
		Dedup:  bridgepostgres.NewRepository(pg.DB, logger),
		Ledger: bridgelocal.LedgerBridge{Ledger: mods.ledger.Ledger},
		Tally:  bridgelocal.TallyBridge{Tally: mods.tally.Tally},
		Logger: logger,
	})

	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		ledgerRelay: ledgerworkers.OutboxRelay{
			Outbox:    ledgerRepo,
			Publisher: bus,
			Clock:     ledgerpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		tallyRelay: tallyworkers.OutboxRelay{
			Outbox:    tallyRepo,
			Publisher: bus,
			Clock:     tallypostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		caseRelay: caseworkers.OutboxRelay{
			Outbox:    caseRepo,
			Publisher: bus,
			Clock:     casepostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		judgmentRelay: judgmentworkers.OutboxRelay{
			Outbox:    judgmentRepo,
			Publisher: bus,
			Clock:     judgmentpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		overdueScan: caseworkers.OverdueScan{
			Cases:   caseRepo,
			Usecase: mods.cases.Cases,
			Clock:   casepostgres.SystemClock{},
			Logger:  logger,
		},
		bridge:          bridge,
		pollInterval:    cfg.OutboxPollInterval,
		overdueScanSpec: cfg.OverdueScanSpec,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.bus.Subscribe(ctx, "judgment.closed", "tally-bridge-cg", w.bridge.Consumer.HandleEvent); err != nil {
		return err
	}

	scheduler := cron.New()
	if err := scheduler.AddFunc(w.overdueScanSpec, func() {
		if err := w.overdueScan.RunOnce(ctx); err != nil {
			w.logger.Error("overdue scan failed",
				"event", "bootstrap_overdue_scan_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"overdue_scan_spec", w.overdueScanSpec,
	)

	for {
		if err := w.ledgerRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.tallyRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.caseRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.judgmentRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
