package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	notificationrouter "graphrelay/contexts/collaboration-ingest/notification-router"
	routererrors "graphrelay/contexts/collaboration-ingest/notification-router/domain/errors"
	subscriptionlifecycle "graphrelay/contexts/collaboration-ingest/subscription-lifecycle"
	lifecycleerrors "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/domain/errors"
	lifecyclehttp "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "graphrelay/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	router    notificationrouter.Module
	lifecycle subscriptionlifecycle.Module
}

func New(
	router notificationrouter.Module,
	lifecycle subscriptionlifecycle.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		router:    router,
		lifecycle: lifecycle,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /notify/{kind}", s.handleNotify)
	s.mux.HandleFunc("POST /notify/{kind}", s.handleNotify)

	s.mux.HandleFunc("GET /subscriptions/renew", s.handleRenew)
	s.mux.HandleFunc("POST /subscriptions/renew", s.handleRenew)
}

// handleNotify serves the webhook endpoint. The subscription-validation
// handshake is answered at this edge: the platform expects the raw token
// echoed back as plain text, before any sink or fetch work happens.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("validationToken") {
		token := r.URL.Query().Get("validationToken")
		s.logger.Info("subscription validation handshake",
			"event", "notify_handshake",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"kind", r.PathValue("kind"),
		)
		writeText(w, http.StatusOK, token)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	resp, err := s.router.Handler.HandleNotification(r.Context(), r.PathValue("kind"), body)
	if err != nil {
		// The webhook sender's redelivery is the only recovery path, so
		// every failure here is a 400 rather than a 5xx.
		writeText(w, http.StatusBadRequest, describeNotifyError(err))
		return
	}
	writeText(w, http.StatusAccepted, resp.Message)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lifecycle.Handler.RunCycleHandler(r.Context())
	if err != nil {
		writeLifecycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func describeNotifyError(err error) string {
	switch {
	case errors.Is(err, routererrors.ErrUnknownKind):
		return fmt.Sprintf("unknown notification kind: %v", err)
	case errors.Is(err, routererrors.ErrKindDisabled):
		return fmt.Sprintf("notification kind is disabled: %v", err)
	case errors.Is(err, routererrors.ErrInvalidEnvelope):
		return fmt.Sprintf("failed to deserialize request body: %v", err)
	case errors.Is(err, routererrors.ErrResourceMismatch):
		return fmt.Sprintf("resource uri did not match expected pattern: %v", err)
	case errors.Is(err, routererrors.ErrUpstreamFetch):
		return fmt.Sprintf("failed to fetch resource: %v", err)
	case errors.Is(err, routererrors.ErrSinkWrite):
		return fmt.Sprintf("failed to write payload to sink: %v", err)
	default:
		return fmt.Sprintf("failed to process notification: %v", err)
	}
}

func writeLifecycleDomainError(w http.ResponseWriter, err error) {
	code := "cycle_failed"
	switch {
	case errors.Is(err, lifecycleerrors.ErrRegistryLoad):
		code = "registry_load_failed"
	case errors.Is(err, lifecycleerrors.ErrRegistrySave):
		code = "registry_save_failed"
	case errors.Is(err, lifecycleerrors.ErrListPrincipals):
		code = "principal_list_failed"
	}
	writeLifecycleError(w, http.StatusBadRequest, code, err.Error())
}

func writeLifecycleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, lifecyclehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
