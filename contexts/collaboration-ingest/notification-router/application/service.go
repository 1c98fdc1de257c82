package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	domainerrors "graphrelay/contexts/collaboration-ingest/notification-router/domain/errors"
	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
)

// Kind identifies one of the closed set of notification variants the
// router understands. Each kind supplies its own id-extraction strategy
// and sink route.
type Kind string

const (
	KindCallRecord  Kind = "callrecord"
	KindUserEvent   Kind = "userevent"
	KindChatMessage Kind = "chatmessage"
)

var (
	userEventPattern   = regexp.MustCompile(`Users/([^/]+)/Events/([^/]+)`)
	chatMessagePattern = regexp.MustCompile(`chats/([^/]+)/messages/([^/]+)`)
)

type Service struct {
	Resources     ports.ResourceClient
	Stream        ports.StreamPublisher
	Archive       ports.ArchiveStore
	Toggle        ports.Toggle
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Routes        map[Kind]ports.SinkRoute
	ChatEnabled   bool
	SourceService string
	Logger        *slog.Logger
}

// ResolveKind maps the endpoint path segment onto a known kind. Chat
// message handling stays behind its feature flag until the chat API
// rollout completes.
func (s Service) ResolveKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindCallRecord:
		return KindCallRecord, nil
	case KindUserEvent:
		return KindUserEvent, nil
	case KindChatMessage:
		if !s.ChatEnabled {
			return "", domainerrors.ErrKindDisabled
		}
		return KindChatMessage, nil
	default:
		return "", fmt.Errorf("%w: %q", domainerrors.ErrUnknownKind, name)
	}
}

// Dispatch fetches and routes every item of a decoded envelope. Items are
// processed independently: one failure does not stop the rest, and the
// summary carries a diagnostic per failed item.
func (s Service) Dispatch(ctx context.Context, kind Kind, items []ports.NotificationItem) (ports.DispatchSummary, error) {
	logger := resolveLogger(s.Logger)

	summary := ports.DispatchSummary{Items: len(items)}
	if len(items) == 0 {
		return summary, fmt.Errorf("%w: envelope has no items", domainerrors.ErrInvalidEnvelope)
	}

	var failures []error
	for i, item := range items {
		if err := s.dispatchItem(ctx, kind, item); err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("item %d: %v", i, err))
			failures = append(failures, err)
			logger.Error("notification item dispatch failed",
				"event", "notification_dispatch_failed",
				"module", "collaboration-ingest/notification-router",
				"layer", "application",
				"kind", string(kind),
				"item", i,
				"resource", item.ResourceURI,
				"error", err.Error(),
			)
			continue
		}
		summary.Dispatched++
	}

	if len(failures) > 0 {
		return summary, joinErrors(failures)
	}
	return summary, nil
}

func (s Service) dispatchItem(ctx context.Context, kind Kind, item ports.NotificationItem) error {
	resource, key, err := s.fetchResource(ctx, kind, item)
	if err != nil {
		return err
	}

	route, ok := s.Routes[kind]
	if !ok {
		return fmt.Errorf("%w: no sink route for %q", domainerrors.ErrUnknownKind, kind)
	}

	if s.Toggle != nil && s.Toggle.StreamEnabled() {
		return s.publish(ctx, kind, route.Topic, key, item.ChangeType, resource.Payload)
	}
	return s.store(ctx, route.Container, key, resource.Payload)
}

func (s Service) fetchResource(ctx context.Context, kind Kind, item ports.NotificationItem) (ports.Resource, string, error) {
	switch kind {
	case KindCallRecord:
		callID := strings.TrimSpace(item.ResourceID)
		if callID == "" {
			return ports.Resource{}, "", fmt.Errorf("%w: call record notification carries no resource id", domainerrors.ErrResourceMismatch)
		}
		resource, err := s.Resources.GetCallRecord(ctx, callID)
		if err != nil {
			return ports.Resource{}, "", fmt.Errorf("%w: call record %s: %v", domainerrors.ErrUpstreamFetch, callID, err)
		}
		// The fetched record's own id names the sink object, matching the
		// platform's canonical id rather than the notification's copy.
		id := resource.ID
		if id == "" {
			id = callID
		}
		return resource, id + ".json", nil

	case KindUserEvent:
		match := userEventPattern.FindStringSubmatch(item.ResourceURI)
		if match == nil {
			return ports.Resource{}, "", fmt.Errorf("%w: %q", domainerrors.ErrResourceMismatch, item.ResourceURI)
		}
		resource, err := s.Resources.GetUserEvent(ctx, match[1], match[2])
		if err != nil {
			return ports.Resource{}, "", fmt.Errorf("%w: event %s for user %s: %v", domainerrors.ErrUpstreamFetch, match[2], match[1], err)
		}
		return resource, item.ResourceID + ".json", nil

	case KindChatMessage:
		match := chatMessagePattern.FindStringSubmatch(item.ResourceURI)
		if match == nil {
			return ports.Resource{}, "", fmt.Errorf("%w: %q", domainerrors.ErrResourceMismatch, item.ResourceURI)
		}
		resource, err := s.Resources.GetChatMessage(ctx, match[1], match[2])
		if err != nil {
			return ports.Resource{}, "", fmt.Errorf("%w: message %s in chat %s: %v", domainerrors.ErrUpstreamFetch, match[2], match[1], err)
		}
		return resource, item.ResourceID + ".json", nil

	default:
		return ports.Resource{}, "", fmt.Errorf("%w: %q", domainerrors.ErrUnknownKind, kind)
	}
}

func (s Service) publish(ctx context.Context, kind Kind, topic string, key string, changeType string, payload []byte) error {
	eventID, err := s.newEventID(ctx)
	if err != nil {
		return fmt.Errorf("%w: mint event id: %v", domainerrors.ErrSinkWrite, err)
	}

	event := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     string(kind) + "." + changeType,
		Format:        "JSON",
		FileName:      key,
		SourceService: s.SourceService,
		OccurredAtUTC: s.now(),
		Payload:       payload,
	}
	if err := s.Stream.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", domainerrors.ErrSinkWrite, topic, err)
	}
	return nil
}

func (s Service) store(ctx context.Context, container string, key string, payload []byte) error {
	if err := s.Archive.Store(ctx, container, key, payload); err != nil {
		return fmt.Errorf("%w: store %s/%s: %v", domainerrors.ErrSinkWrite, container, key, err)
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) newEventID(ctx context.Context) (string, error) {
	if s.IDGenerator == nil {
		return "", fmt.Errorf("id generator is not configured")
	}
	return s.IDGenerator.NewID(ctx)
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	joined := errs[0]
	for _, err := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, err)
	}
	return joined
}
