package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	notificationrouter "graphrelay/contexts/collaboration-ingest/notification-router"
	routerpostgres "graphrelay/contexts/collaboration-ingest/notification-router/adapters/postgres"
	routerapp "graphrelay/contexts/collaboration-ingest/notification-router/application"
	routerports "graphrelay/contexts/collaboration-ingest/notification-router/ports"
	subscriptionlifecycle "graphrelay/contexts/collaboration-ingest/subscription-lifecycle"
	lifecyclepostgres "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/adapters/postgres"
	"graphrelay/internal/platform/config"
	"graphrelay/internal/platform/db"
	"graphrelay/internal/platform/graphapi"
	"graphrelay/internal/platform/httpserver"
	"graphrelay/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	gateway  *messaging.GatewayPublisher
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres   *db.Postgres
	renewalJob subscriptionlifecycle.Module
	interval   time.Duration
	logger     *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return BuildAPIFromConfig(cfg)
}

func BuildAPIFromConfig(cfg config.Config) (*APIApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	graph := newGraphClient(cfg, logger)

	var stream routerports.StreamPublisher
	var gateway *messaging.GatewayPublisher
	if strings.TrimSpace(cfg.EventGatewayURL) != "" {
		gateway = messaging.NewGatewayPublisher(cfg.EventGatewayURL, logger)
		stream = gateway
	} else {
		// Without a remote gateway the in-process hub is the streaming
		// sink; a drain consumer makes deliveries observable in dev logs.
		hub := messaging.NewHub(logger)
		if err := attachLocalDrain(hub, cfg, logger); err != nil {
			return nil, err
		}
		stream = hub
	}

	routerModule := notificationrouter.NewModule(notificationrouter.Dependencies{
		Resources:     graph,
		Stream:        stream,
		Archive:       routerpostgres.NewArchiveStore(pg.DB, cfg.ArchiveCompression, logger),
		Toggle:        routerpostgres.StaticToggle{Enabled: cfg.StreamToggle},
		Clock:         routerpostgres.SystemClock{},
		IDGenerator:   routerpostgres.UUIDGenerator{},
		Routes:        sinkRoutes(cfg),
		ChatEnabled:   cfg.ChatAPIEnabled,
		SourceService: cfg.ServiceName,
		Logger:        logger,
	})

	lifecycleModule := newLifecycleModule(cfg, pg, graph, logger)

	server := httpserver.New(routerModule, lifecycleModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		gateway:  gateway,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return BuildWorkerFromConfig(cfg)
}

func BuildWorkerFromConfig(cfg config.Config) (*WorkerApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	graph := newGraphClient(cfg, logger)
	return &WorkerApp{
		postgres:   pg,
		renewalJob: newLifecycleModule(cfg, pg, graph, logger),
		interval:   cfg.RenewalInterval,
		logger:     logger,
	}, nil
}

func newGraphClient(cfg config.Config, logger *slog.Logger) *graphapi.Client {
	credentials := &graphapi.ClientCredentials{
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}
	return graphapi.NewClient(graphapi.Options{
		BaseURL:       cfg.GraphBaseURL,
		TokenProvider: credentials.Provider(),
		UserAgent:     cfg.ServiceName,
		Logger:        logger,
	})
}

func newLifecycleModule(cfg config.Config, pg *db.Postgres, graph *graphapi.Client, logger *slog.Logger) subscriptionlifecycle.Module {
	clientState := strings.TrimSpace(cfg.ClientState)
	if clientState == "" {
		clientState = uuid.NewString()
	}
	return subscriptionlifecycle.NewModule(subscriptionlifecycle.Dependencies{
		Subscriptions: graph,
		Registry:      lifecyclepostgres.NewRegistryStore(pg.DB, logger),
		Clock:         lifecyclepostgres.SystemClock{},
		LeaseWindow:   cfg.LeaseWindow,
		PublicBaseURL: cfg.PublicBaseURL,
		FunctionKey:   cfg.FunctionKey,
		ClientState:   clientState,
		Logger:        logger,
	})
}

func attachLocalDrain(hub *messaging.Hub, cfg config.Config, logger *slog.Logger) error {
	for _, topic := range []string{cfg.CallRecordTopic, cfg.UserEventTopic, cfg.ChatMessageTopic} {
		topic := topic
		err := hub.Subscribe(context.Background(), topic, "graphrelay-local-drain", func(_ context.Context, event routerports.EventEnvelope) error {
			logger.Info("stream event delivered",
				"event", "local_drain_delivered",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"file_name", event.FileName,
			)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func sinkRoutes(cfg config.Config) map[routerapp.Kind]routerports.SinkRoute {
	return map[routerapp.Kind]routerports.SinkRoute{
		routerapp.KindCallRecord: {
			Topic:     cfg.CallRecordTopic,
			Container: cfg.CallRecordContainer,
		},
		routerapp.KindUserEvent: {
			Topic:     cfg.UserEventTopic,
			Container: cfg.UserEventContainer,
		},
		routerapp.KindChatMessage: {
			Topic:     cfg.ChatMessageTopic,
			Container: cfg.ChatMessageContainer,
		},
	}
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
	if a.gateway != nil {
		_ = a.gateway.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"renewal_interval", w.interval.String(),
	)

	for {
		if err := w.renewalJob.RenewalJob.RunOnce(ctx); err != nil {
			w.logger.Error("renewal cycle failed",
				"event", "bootstrap_renewal_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
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
