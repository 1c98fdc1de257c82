package subscriptionlifecycle

import (
	"log/slog"
	"time"

	httpadapter "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/adapters/http"
	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/adapters/memory"
	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/application"
	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/application/workers"
	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/ports"
)

// Module is the subscription-lifecycle composition root exposed to runtime wiring.
type Module struct {
	Handler    httpadapter.Handler
	RenewalJob workers.RenewalJob
	Store      *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Subscriptions ports.SubscriptionClient
	Registry      ports.RegistryStore
	Clock         ports.Clock
	LeaseWindow   time.Duration
	PublicBaseURL string
	FunctionKey   string
	ClientState   string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Subscriptions: deps.Subscriptions,
		Registry:      deps.Registry,
		Clock:         deps.Clock,
		LeaseWindow:   deps.LeaseWindow,
		PublicBaseURL: deps.PublicBaseURL,
		FunctionKey:   deps.FunctionKey,
		ClientState:   deps.ClientState,
		Logger:        deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		RenewalJob: workers.RenewalJob{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Subscriptions: store,
		Registry:      store,
		Clock:         store,
		LeaseWindow:   48 * time.Hour,
		PublicBaseURL: "http://localhost:8080",
		ClientState:   "local-client-state",
		Logger:        logger,
	})
	module.Store = store
	return module
}
