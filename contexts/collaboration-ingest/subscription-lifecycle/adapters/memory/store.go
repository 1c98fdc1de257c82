package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/ports"

	"github.com/google/uuid"
)

// Store backs the lifecycle module for development and tests: a registry
// held in memory plus a fake platform that accepts every create/renew.
type Store struct {
	mu sync.RWMutex

	registry   []byte
	hasSnap    bool
	principals []ports.Principal

	created []ports.SubscriptionSpec
	renewed []string
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SeedPrincipal(principal ports.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals = append(s.principals, principal)
}

func (s *Store) Load(_ context.Context) (ports.Registry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasSnap {
		return ports.Registry{}, false, nil
	}
	var registry ports.Registry
	if err := json.Unmarshal(s.registry, &registry); err != nil {
		return ports.Registry{}, false, err
	}
	return registry, true, nil
}

func (s *Store) Save(_ context.Context, registry ports.Registry) error {
	payload, err := json.Marshal(registry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = payload
	s.hasSnap = true
	return nil
}

func (s *Store) ListPrincipals(_ context.Context) ([]ports.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Principal(nil), s.principals...), nil
}

func (s *Store) CreateSubscription(_ context.Context, spec ports.SubscriptionSpec) (ports.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, spec)
	return ports.Subscription{
		ID:        uuid.NewString(),
		ExpiresAt: spec.ExpiresAt,
	}, nil
}

func (s *Store) RenewSubscription(_ context.Context, subscriptionID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renewed = append(s.renewed, subscriptionID)
	return nil
}

func (s *Store) Created() []ports.SubscriptionSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.SubscriptionSpec(nil), s.created...)
}

func (s *Store) Renewed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.renewed...)
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
