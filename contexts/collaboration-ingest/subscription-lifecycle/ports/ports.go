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

// Principal is a platform identity that can own per-resource subscriptions.
type Principal struct {
	ID          string
	DisplayName string
}

// SubscriptionSpec describes a change-notification subscription to create
// on the platform. ChangeTypes is the platform's comma-joined form.
type SubscriptionSpec struct {
	Resource        string
	ChangeTypes     string
	NotificationURL string
	ExpiresAt       time.Time
	ClientState     string
}

type Subscription struct {
	ID        string
	ExpiresAt time.Time
}

// SubscriptionClient is the platform's subscription management surface.
type SubscriptionClient interface {
	ListPrincipals(ctx context.Context) ([]Principal, error)
	CreateSubscription(ctx context.Context, spec SubscriptionSpec) (Subscription, error)
	RenewSubscription(ctx context.Context, subscriptionID string, expiresAt time.Time) error
}

// RegistryEntry maps one principal key onto its live subscription. The
// JSON tags are the durable wire format and must not change.
type RegistryEntry struct {
	PrincipalKey   string `json:"UserId"`
	SubscriptionID string `json:"SubscriptionId"`
}

// Registry is the full durable subscription registry. At most one entry
// exists per principal key.
type Registry struct {
	Value []RegistryEntry `json:"value"`
}

// Lookup returns the subscription id recorded for a principal key.
func (r Registry) Lookup(principalKey string) (string, bool) {
	for _, entry := range r.Value {
		if entry.PrincipalKey == principalKey {
			return entry.SubscriptionID, true
		}
	}
	return "", false
}

// Append records a new entry, refusing duplicates so the uniqueness
// invariant holds no matter how the cycle reaches it.
func (r *Registry) Append(entry RegistryEntry) bool {
	if _, exists := r.Lookup(entry.PrincipalKey); exists {
		return false
	}
	r.Value = append(r.Value, entry)
	return true
}

// RegistryStore is the durable home of the registry. Load reports absence
// through found=false; Save overwrites the prior contents in full.
type RegistryStore interface {
	Load(ctx context.Context) (Registry, bool, error)
	Save(ctx context.Context, registry Registry) error
}

// CycleSummary reports one lifecycle cycle. Failed counts entries whose
// create or renew call failed; those retry naturally next cycle.
type CycleSummary struct {
	Renewed int
	Created int
	Failed  int
}
