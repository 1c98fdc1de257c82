package messaging

import (
	"context"
	"log/slog"
	"sync"

	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
)

// Hub is the in-process streaming sink used for development and tests.
// It fans published envelopes out to topic subscribers the same way the
// external event hub does, minus the network.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.EventEnvelope
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string][]chan ports.EventEnvelope),
		logger:      logger,
	}
}

func (h *Hub) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	h.mu.RLock()
	subs := append([]chan ports.EventEnvelope(nil), h.subscribers[topic]...)
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			if h.logger != nil {
				h.logger.Warn("dropping event for slow subscriber",
					"event", "hub_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"event_id", event.EventID,
				)
			}
		}
	}

	if h.logger != nil {
		h.logger.Info("event published",
			"event", "hub_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"file_name", event.FileName,
		)
	}
	return nil
}

func (h *Hub) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	ch := make(chan ports.EventEnvelope, 128)

	h.mu.Lock()
	h.subscribers[topic] = append(h.subscribers[topic], ch)
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				h.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil && h.logger != nil {
					h.logger.Error("consumer handler failed",
						"event", "hub_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (h *Hub) removeSubscriber(topic string, target chan ports.EventEnvelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan ports.EventEnvelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	h.subscribers[topic] = filtered
}
