package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Toggle selects the dispatch target for fetched payloads. Evaluated once
// per notification so operators can flip it without touching in-flight work.
type Toggle interface {
	StreamEnabled() bool
}

// Resource is a fetched platform object. Payload is the canonical JSON
// body returned by the platform; ID is the object's own identifier.
type Resource struct {
	ID      string
	Payload []byte
}

// ResourceClient fetches full resource payloads from the collaboration
// platform after a change notification names them.
type ResourceClient interface {
	GetCallRecord(ctx context.Context, callID string) (Resource, error)
	GetUserEvent(ctx context.Context, userID string, eventID string) (Resource, error)
	GetChatMessage(ctx context.Context, chatID string, messageID string) (Resource, error)
}

// NotificationItem is one entry of a change-notification envelope after
// transport decoding. ResourceURI is the platform path of the changed
// object; ResourceID is the platform-assigned identifier carried inline.
type NotificationItem struct {
	ResourceURI string
	ResourceID  string
	ChangeType  string
}

// EventEnvelope is the unit handed to the streaming sink.
type EventEnvelope struct {
	EventID       string
	EventType     string
	Format        string
	FileName      string
	SourceService string
	OccurredAtUTC time.Time
	Payload       []byte
}

type StreamPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// ArchiveStore is the key-addressed blob sink. Store overwrites on conflict.
type ArchiveStore interface {
	Store(ctx context.Context, container string, key string, payload []byte) error
}

// SinkRoute fixes the stream topic and archive container for one
// notification kind.
type SinkRoute struct {
	Topic     string
	Container string
}

// DispatchSummary reports per-envelope processing. Failures holds one
// diagnostic per item that could not be dispatched.
type DispatchSummary struct {
	Items      int
	Dispatched int
	Failures   []string
}
