// Package subscriptionlifecycle implements the Subscription Lifecycle
// Manager inside the collaboration-ingest context.
//
// The module owns the durable subscription registry and the scheduled
// cycle that keeps platform change-notification subscriptions alive:
// renewing entries nearing expiry, creating the tenant-wide call-record
// subscription and one per-principal event subscription, and persisting
// the registry snapshot exactly once per cycle. It keeps business rules
// in the application layer and isolates infrastructure concerns behind
// ports and adapters.
package subscriptionlifecycle
