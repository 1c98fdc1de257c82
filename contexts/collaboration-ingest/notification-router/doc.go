// Package notificationrouter implements the Notification Router inside
// the collaboration-ingest context.
//
// The module owns webhook envelope validation, resolution of notification
// kinds (call records, user calendar events, chat messages), fetching the
// full resource payload from the collaboration platform, and routing each
// payload to the streaming or archive sink selected by the feature toggle.
// It keeps business rules in the application layer and isolates
// infrastructure concerns behind ports and adapters.
package notificationrouter
