package notificationrouter

import (
	"log/slog"

	httpadapter "graphrelay/contexts/collaboration-ingest/notification-router/adapters/http"
	"graphrelay/contexts/collaboration-ingest/notification-router/adapters/memory"
	"graphrelay/contexts/collaboration-ingest/notification-router/application"
	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
)

// Module is the notification-router composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Resources     ports.ResourceClient
	Stream        ports.StreamPublisher
	Archive       ports.ArchiveStore
	Toggle        ports.Toggle
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Routes        map[application.Kind]ports.SinkRoute
	ChatEnabled   bool
	SourceService string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Resources:     deps.Resources,
		Stream:        deps.Stream,
		Archive:       deps.Archive,
		Toggle:        deps.Toggle,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		Routes:        deps.Routes,
		ChatEnabled:   deps.ChatEnabled,
		SourceService: deps.SourceService,
		Logger:        deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(routes map[application.Kind]ports.SinkRoute, chatEnabled bool, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Resources:     store,
		Stream:        store,
		Archive:       store,
		Toggle:        store,
		Clock:         store,
		IDGenerator:   store,
		Routes:        routes,
		ChatEnabled:   chatEnabled,
		SourceService: "graphrelay",
		Logger:        logger,
	})
	module.Store = store
	return module
}
