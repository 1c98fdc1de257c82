package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"graphrelay/contexts/collaboration-ingest/notification-router/ports"

	"github.com/google/uuid"
)

// Store is the in-memory backing for development and tests. It implements
// the resource client and both sinks so a router module can run with no
// external services.
type Store struct {
	mu sync.RWMutex

	callRecords  map[string]ports.Resource
	userEvents   map[string]ports.Resource
	chatMessages map[string]ports.Resource

	published []PublishedEvent
	archived  map[string][]byte

	streamEnabled bool
}

type PublishedEvent struct {
	Topic string
	Event ports.EventEnvelope
}

func NewStore() *Store {
	return &Store{
		callRecords:  make(map[string]ports.Resource),
		userEvents:   make(map[string]ports.Resource),
		chatMessages: make(map[string]ports.Resource),
		archived:     make(map[string][]byte),
	}
}

func (s *Store) SeedCallRecord(resource ports.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callRecords[resource.ID] = resource
}

func (s *Store) SeedUserEvent(userID string, eventID string, resource ports.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userEvents[userID+"/"+eventID] = resource
}

func (s *Store) SeedChatMessage(chatID string, messageID string, resource ports.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatMessages[chatID+"/"+messageID] = resource
}

func (s *Store) GetCallRecord(_ context.Context, callID string) (ports.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resource, ok := s.callRecords[callID]
	if !ok {
		return ports.Resource{}, fmt.Errorf("call record %s not found", callID)
	}
	return resource, nil
}

func (s *Store) GetUserEvent(_ context.Context, userID string, eventID string) (ports.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resource, ok := s.userEvents[userID+"/"+eventID]
	if !ok {
		return ports.Resource{}, fmt.Errorf("event %s for user %s not found", eventID, userID)
	}
	return resource, nil
}

func (s *Store) GetChatMessage(_ context.Context, chatID string, messageID string) (ports.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resource, ok := s.chatMessages[chatID+"/"+messageID]
	if !ok {
		return ports.Resource{}, fmt.Errorf("message %s in chat %s not found", messageID, chatID)
	}
	return resource, nil
}

func (s *Store) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, PublishedEvent{Topic: topic, Event: event})
	return nil
}

func (s *Store) Store(_ context.Context, container string, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archived[container+"/"+key] = append([]byte(nil), payload...)
	return nil
}

func (s *Store) SetStreamEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamEnabled = enabled
}

func (s *Store) StreamEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamEnabled
}

func (s *Store) Published() []PublishedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PublishedEvent(nil), s.published...)
}

func (s *Store) ArchivedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.archived)
}

func (s *Store) Archived(container string, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.archived[container+"/"+key]
	return payload, ok
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
