package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/domain/errors"
	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/ports"
)

// CallRecordSentinel keys the single tenant-wide call-record subscription
// in the registry, alongside per-principal entries keyed by principal id.
const CallRecordSentinel = "callRecordId"

const defaultLeaseWindow = 48 * time.Hour

type Service struct {
	Subscriptions ports.SubscriptionClient
	Registry      ports.RegistryStore
	Clock         ports.Clock
	Logger        *slog.Logger

	// LeaseWindow is how far into the future create and renew push a
	// subscription's expiry. Defaults to the platform's two-day maximum.
	LeaseWindow time.Duration

	// PublicBaseURL and FunctionKey build the notification target the
	// platform calls back; ClientState rides along on every delivery.
	PublicBaseURL string
	FunctionKey   string
	ClientState   string
}

// RunCycle renews subscriptions nearing expiry and creates the missing
// ones, then persists the registry. Entry-level failures are logged and
// swallowed; registry load/save failures abort the cycle.
func (s Service) RunCycle(ctx context.Context) (ports.CycleSummary, error) {
	logger := resolveLogger(s.Logger)
	var summary ports.CycleSummary

	registry, found, err := s.Registry.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", domainerrors.ErrRegistryLoad, err)
	}
	if !found {
		// Persisting the empty registry up front establishes the store
		// object so later loads distinguish "empty" from "broken".
		registry = ports.Registry{Value: []ports.RegistryEntry{}}
		if err := s.Registry.Save(ctx, registry); err != nil {
			return summary, fmt.Errorf("%w: %v", domainerrors.ErrRegistrySave, err)
		}
		logger.Info("subscription registry initialized",
			"event", "registry_initialized",
			"module", "collaboration-ingest/subscription-lifecycle",
			"layer", "application",
		)
	}

	s.processCallRecord(ctx, &registry, &summary)

	cycleErr := s.processPrincipals(ctx, &registry, &summary)

	// The registry persists exactly once, after all processing, so store
	// readers never observe partial-cycle work. It persists even when the
	// principal listing failed: the call-record entry minted above must
	// not be lost, or the next cycle would create a duplicate.
	if err := s.Registry.Save(ctx, registry); err != nil {
		return summary, fmt.Errorf("%w: %v", domainerrors.ErrRegistrySave, err)
	}

	logger.Info("subscription cycle finished",
		"event", "subscription_cycle_finished",
		"module", "collaboration-ingest/subscription-lifecycle",
		"layer", "application",
		"renewed", summary.Renewed,
		"created", summary.Created,
		"failed", summary.Failed,
	)
	return summary, cycleErr
}

func (s Service) processCallRecord(ctx context.Context, registry *ports.Registry, summary *ports.CycleSummary) {
	logger := resolveLogger(s.Logger)

	if subscriptionID, ok := registry.Lookup(CallRecordSentinel); ok {
		s.renew(ctx, CallRecordSentinel, subscriptionID, summary)
		return
	}

	spec := s.callRecordSpec()
	created, err := s.Subscriptions.CreateSubscription(ctx, spec)
	if err != nil {
		// Leave the registry untouched so a future cycle retries creation.
		summary.Failed++
		logger.Error("call-record subscription create failed",
			"event", "subscription_create_failed",
			"module", "collaboration-ingest/subscription-lifecycle",
			"layer", "application",
			"principal_key", CallRecordSentinel,
			"error", err.Error(),
		)
		return
	}
	registry.Append(ports.RegistryEntry{PrincipalKey: CallRecordSentinel, SubscriptionID: created.ID})
	summary.Created++
}

func (s Service) processPrincipals(ctx context.Context, registry *ports.Registry, summary *ports.CycleSummary) error {
	logger := resolveLogger(s.Logger)

	principals, err := s.Subscriptions.ListPrincipals(ctx)
	if err != nil {
		logger.Error("principal listing failed",
			"event", "principal_list_failed",
			"module", "collaboration-ingest/subscription-lifecycle",
			"layer", "application",
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrListPrincipals, err)
	}

	for _, principal := range principals {
		key := strings.TrimSpace(principal.ID)
		if key == "" {
			continue
		}

		if subscriptionID, ok := registry.Lookup(key); ok {
			s.renew(ctx, key, subscriptionID, summary)
			continue
		}

		spec := s.principalEventSpec(key)
		created, err := s.Subscriptions.CreateSubscription(ctx, spec)
		if err != nil {
			summary.Failed++
			logger.Error("principal subscription create failed",
				"event", "subscription_create_failed",
				"module", "collaboration-ingest/subscription-lifecycle",
				"layer", "application",
				"principal_key", key,
				"error", err.Error(),
			)
			continue
		}
		registry.Append(ports.RegistryEntry{PrincipalKey: key, SubscriptionID: created.ID})
		summary.Created++
	}
	return nil
}

func (s Service) renew(ctx context.Context, principalKey string, subscriptionID string, summary *ports.CycleSummary) {
	logger := resolveLogger(s.Logger)

	if err := s.Subscriptions.RenewSubscription(ctx, subscriptionID, s.leaseExpiry()); err != nil {
		// The entry stays in the registry at its previous expiry; a
		// terminally rejected subscription keeps retrying and is only
		// visible here, so log it loudly.
		summary.Failed++
		logger.Error("subscription renew failed",
			"event", "subscription_renew_failed",
			"module", "collaboration-ingest/subscription-lifecycle",
			"layer", "application",
			"principal_key", principalKey,
			"subscription_id", subscriptionID,
			"error", err.Error(),
		)
		return
	}
	summary.Renewed++
}

func (s Service) callRecordSpec() ports.SubscriptionSpec {
	return ports.SubscriptionSpec{
		Resource:        "/communications/callRecords",
		ChangeTypes:     "created",
		NotificationURL: s.notificationURL("callrecord"),
		ExpiresAt:       s.leaseExpiry(),
		ClientState:     s.ClientState,
	}
}

func (s Service) principalEventSpec(principalID string) ports.SubscriptionSpec {
	return ports.SubscriptionSpec{
		Resource:        fmt.Sprintf("/users/%s/events", principalID),
		ChangeTypes:     "created,updated",
		NotificationURL: s.notificationURL("userevent"),
		ExpiresAt:       s.leaseExpiry(),
		ClientState:     s.ClientState,
	}
}

func (s Service) notificationURL(kind string) string {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	url := fmt.Sprintf("%s/notify/%s?clientId=default", base, kind)
	if s.FunctionKey != "" {
		url = fmt.Sprintf("%s/notify/%s?code=%s&clientId=default", base, kind, s.FunctionKey)
	}
	return url
}

func (s Service) leaseExpiry() time.Time {
	lease := s.LeaseWindow
	if lease <= 0 {
		lease = defaultLeaseWindow
	}
	return s.now().Add(lease)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
