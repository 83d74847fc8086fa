package judgmentservice

import (
	"log/slog"

	httpadapter "pleito/contexts/adjudication/judgment-service/adapters/http"
	"pleito/contexts/adjudication/judgment-service/adapters/memory"
	"pleito/contexts/adjudication/judgment-service/application/commands"
	"pleito/contexts/adjudication/judgment-service/application/queries"
	"pleito/contexts/adjudication/judgment-service/ports"
	"pleito/internal/shared/deadline"
)

type Module struct {
	Handler   httpadapter.Handler
	Judgments commands.JudgmentUseCase
	Store     *memory.Store
}

type Dependencies struct {
	Sessions    ports.JudgmentRepository
	Cases       ports.CaseReader
	Members     ports.MemberDirectory
	Credentials ports.CredentialClient
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	AppealDays  int
	Calendar    deadline.Calendar
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	judgmentUseCase := commands.JudgmentUseCase{
		Sessions:    deps.Sessions,
		Cases:       deps.Cases,
		Members:     deps.Members,
		Credentials: deps.Credentials,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		AppealDays:  deps.AppealDays,
		Calendar:    deps.Calendar,
		Logger:      deps.Logger,
	}
	sessionUseCase := queries.SessionUseCase{
		Sessions: deps.Sessions,
	}
	return Module{
		Handler: httpadapter.Handler{
			Judgments: judgmentUseCase,
			Sessions:  sessionUseCase,
			Logger:    deps.Logger,
		},
		Judgments: judgmentUseCase,
	}
}

func NewInMemoryModule(appealDays int, calendar deadline.Calendar, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions:    store,
		Cases:       store,
		Members:     store,
		Credentials: store,
		Clock:       store,
		IDGen:       store,
		AppealDays:  appealDays,
		Calendar:    calendar,
		Logger:      logger,
	})
	module.Store = store
	return module
}
