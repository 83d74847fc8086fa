package caseservice

import (
	"log/slog"

	httpadapter "pleito/contexts/adjudication/case-service/adapters/http"
	"pleito/contexts/adjudication/case-service/adapters/memory"
	"pleito/contexts/adjudication/case-service/application/commands"
	"pleito/contexts/adjudication/case-service/application/queries"
	"pleito/contexts/adjudication/case-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Cases   commands.CaseUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Cases     ports.CaseRepository
	Sequencer ports.ProtocolSequencer
	Documents ports.DocumentStore
	Notifier  ports.NotificationDispatcher
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Policy    commands.DeadlinePolicy
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	caseUseCase := commands.CaseUseCase{
		Cases:     deps.Cases,
		Sequencer: deps.Sequencer,
		Documents: deps.Documents,
		Notifier:  deps.Notifier,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Policy:    deps.Policy,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.CaseUseCase{
		Cases: deps.Cases,
	}
	return Module{
		Handler: httpadapter.Handler{
			Cases:   caseUseCase,
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Cases: caseUseCase,
	}
}

func NewInMemoryModule(policy commands.DeadlinePolicy, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Cases:     store,
		Sequencer: store,
		Documents: store,
		Notifier:  store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Policy:    policy,
		Logger:    logger,
	})
	module.Store = store
	return module
}
