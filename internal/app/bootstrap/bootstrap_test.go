package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	routerports "graphrelay/contexts/collaboration-ingest/notification-router/ports"
	"graphrelay/internal/platform/config"
	"graphrelay/internal/platform/messaging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAttachLocalDrainConsumesPublishedEvents(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	cfg := config.Config{
		CallRecordTopic:  "callrecords-topic",
		UserEventTopic:   "userevents-topic",
		ChatMessageTopic: "chatmessages-topic",
	}
	hub := messaging.NewHub(nil)
	if err := attachLocalDrain(hub, cfg, logger); err != nil {
		t.Fatalf("attach local drain failed: %v", err)
	}

	event := routerports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "callrecord.created",
		FileName:  "abc123.json",
	}
	if err := hub.Publish(context.Background(), "callrecords-topic", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if strings.Contains(out.String(), "local_drain_delivered") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("drain never logged the delivered event; log output: %s", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
