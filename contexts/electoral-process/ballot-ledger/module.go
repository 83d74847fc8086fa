package ballotledger

import (
	"log/slog"

	httpadapter "pleito/contexts/electoral-process/ballot-ledger/adapters/http"
	"pleito/contexts/electoral-process/ballot-ledger/adapters/memory"
	"pleito/contexts/electoral-process/ballot-ledger/application/commands"
	"pleito/contexts/electoral-process/ballot-ledger/application/queries"
	"pleito/contexts/electoral-process/ballot-ledger/domain/entities"
	"pleito/contexts/electoral-process/ballot-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Ledger  commands.LedgerUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Ballots       ports.BallotRepository
	Elections     ports.ElectionRepository
	Eligibility   ports.EligibilityClient
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	ReceiptSecret string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ledgerUseCase := commands.LedgerUseCase{
		Ballots:       deps.Ballots,
		Elections:     deps.Elections,
		Eligibility:   deps.Eligibility,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		ReceiptSecret: deps.ReceiptSecret,
		Logger:        deps.Logger,
	}
	receiptUseCase := queries.ReceiptUseCase{
		Ballots:       deps.Ballots,
		ReceiptSecret: deps.ReceiptSecret,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger:   ledgerUseCase,
			Receipts: receiptUseCase,
			Logger:   deps.Logger,
		},
		Ledger: ledgerUseCase,
	}
}

func NewInMemoryModule(seed []entities.Ballot, receiptSecret string, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Ballots:       store,
		Elections:     store,
		Eligibility:   store,
		Outbox:        store,
		Clock:         store,
		IDGen:         store,
		ReceiptSecret: receiptSecret,
		Logger:        logger,
	})
	module.Store = store
	return module
}
