package events

import (
	"encoding/json"
	"time"
)

// Envelope is the shared event shape written to the streaming sink.
// Align fields with the downstream consumer contract: Format and FileName
// are the metadata hub consumers use to land payloads in storage.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Topic         string          `json:"topic"`
	SourceService string          `json:"source_service"`
	OccurredAtUTC time.Time       `json:"occurred_at_utc"`
	Format        string          `json:"format"`
	FileName      string          `json:"file_name"`
	Payload       json.RawMessage `json:"payload"`
}
