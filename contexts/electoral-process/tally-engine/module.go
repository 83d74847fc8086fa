package tallyengine

import (
	"log/slog"

	httpadapter "pleito/contexts/electoral-process/tally-engine/adapters/http"
	"pleito/contexts/electoral-process/tally-engine/adapters/memory"
	"pleito/contexts/electoral-process/tally-engine/application/commands"
	"pleito/contexts/electoral-process/tally-engine/application/queries"
	"pleito/contexts/electoral-process/tally-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Tally   commands.TallyUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Ledger  ports.LedgerSource
	Results ports.ResultRepository
	Cases   ports.CaseGuard
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	tallyUseCase := commands.TallyUseCase{
		Ledger:  deps.Ledger,
		Results: deps.Results,
		Cases:   deps.Cases,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	resultUseCase := queries.ResultUseCase{
		Results: deps.Results,
	}
	return Module{
		Handler: httpadapter.Handler{
			Tally:   tallyUseCase,
			Results: resultUseCase,
			Logger:  deps.Logger,
		},
		Tally: tallyUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:  store,
		Results: store,
		Cases:   store,
		Outbox:  store,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
