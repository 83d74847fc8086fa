package tallybridge

import (
	"log/slog"

	"pleito/contexts/electoral-process/tally-bridge/adapters/memory"
	"pleito/contexts/electoral-process/tally-bridge/application/workers"
	"pleito/contexts/electoral-process/tally-bridge/ports"
)

type Module struct {
	Consumer workers.JudgmentConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Dedup  ports.EventDedup
	Ledger ports.LedgerCommands
	Tally  ports.TallyCommands
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Consumer: workers.JudgmentConsumer{
			Dedup:  deps.Dedup,
			Ledger: deps.Ledger,
			Tally:  deps.Tally,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Dedup:  store,
		Ledger: store,
		Tally:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
