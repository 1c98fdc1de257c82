package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
	"graphrelay/internal/shared/events"
)

// GatewayPublisher forwards envelopes to a remote event gateway over a
// websocket. The connection is dialed lazily and redialed after any write
// failure; the caller's retry policy (the webhook sender redelivering)
// covers messages lost in between.
type GatewayPublisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewGatewayPublisher(url string, logger *slog.Logger) *GatewayPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayPublisher{
		url:    url,
		logger: logger,
	}
}

func (p *GatewayPublisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	frame := events.Envelope{
		EventID:       event.EventID,
		EventType:     event.EventType,
		Topic:         topic,
		SourceService: event.SourceService,
		OccurredAtUTC: event.OccurredAtUTC,
		Format:        event.Format,
		FileName:      event.FileName,
		Payload:       json.RawMessage(event.Payload),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode gateway frame: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.ensureConn(ctx)
	if err != nil {
		return fmt.Errorf("dial event gateway: %w", err)
	}

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		p.resetConn()
		return fmt.Errorf("write to event gateway: %w", err)
	}

	p.logger.Info("event forwarded to gateway",
		"event", "gateway_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
	)
	return nil
}

func (p *GatewayPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close(websocket.StatusNormalClosure, "shutdown")
	p.conn = nil
	return err
}

func (p *GatewayPublisher) ensureConn(ctx context.Context) (*websocket.Conn, error) {
	if p.conn != nil {
		return p.conn, nil
	}
	conn, _, err := websocket.Dial(ctx, p.url, nil)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *GatewayPublisher) resetConn() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Close(websocket.StatusInternalError, "write failed")
	p.conn = nil
}
