package application_test

import (
	"context"
	"errors"
	"testing"

	"graphrelay/contexts/collaboration-ingest/notification-router/adapters/memory"
	"graphrelay/contexts/collaboration-ingest/notification-router/application"
	domainerrors "graphrelay/contexts/collaboration-ingest/notification-router/domain/errors"
	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
)

func testRoutes() map[application.Kind]ports.SinkRoute {
	return map[application.Kind]ports.SinkRoute{
		application.KindCallRecord:  {Topic: "callrecords-topic", Container: "callrecords-container"},
		application.KindUserEvent:   {Topic: "userevents-topic", Container: "userevents-container"},
		application.KindChatMessage: {Topic: "chatmessages-topic", Container: "chatmessages-container"},
	}
}

func newTestService(store *memory.Store, chatEnabled bool) application.Service {
	return application.Service{
		Resources:     store,
		Stream:        store,
		Archive:       store,
		Toggle:        store,
		Clock:         store,
		IDGenerator:   store,
		Routes:        testRoutes(),
		ChatEnabled:   chatEnabled,
		SourceService: "graphrelay",
	}
}

func TestResolveKindChatGate(t *testing.T) {
	store := memory.NewStore()

	service := newTestService(store, false)
	if _, err := service.ResolveKind("chatmessage"); !errors.Is(err, domainerrors.ErrKindDisabled) {
		t.Fatalf("expected chat kind disabled, got %v", err)
	}

	service = newTestService(store, true)
	kind, err := service.ResolveKind("chatmessage")
	if err != nil {
		t.Fatalf("resolve chat kind failed: %v", err)
	}
	if kind != application.KindChatMessage {
		t.Fatalf("expected chatmessage kind, got %q", kind)
	}

	if kind, err := service.ResolveKind("CallRecord"); err != nil || kind != application.KindCallRecord {
		t.Fatalf("expected case-insensitive resolution, got %q %v", kind, err)
	}
	if _, err := service.ResolveKind("mailbox"); !errors.Is(err, domainerrors.ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
}

func TestDispatchArchivesCallRecordByCanonicalID(t *testing.T) {
	store := memory.NewStore()
	payload := []byte(`{"id":"abc123","sessions":[]}`)
	store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: payload})

	service := newTestService(store, false)
	summary, err := service.Dispatch(context.Background(), application.KindCallRecord, []ports.NotificationItem{
		{ResourceURI: "communications/callRecords/abc123", ResourceID: "abc123", ChangeType: "created"},
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if summary.Dispatched != 1 || summary.Items != 1 {
		t.Fatalf("expected 1/1 dispatched, got %d/%d", summary.Dispatched, summary.Items)
	}

	archived, ok := store.Archived("callrecords-container", "abc123.json")
	if !ok {
		t.Fatalf("expected call record archived under abc123.json")
	}
	if string(archived) != string(payload) {
		t.Fatalf("archived payload mismatch: %s", archived)
	}
	if len(store.Published()) != 0 {
		t.Fatalf("expected nothing published with streaming disabled")
	}
}

func TestDispatchStreamsWhenToggleEnabled(t *testing.T) {
	store := memory.NewStore()
	store.SetStreamEnabled(true)
	payload := []byte(`{"id":"abc123"}`)
	store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: payload})

	service := newTestService(store, false)
	summary, err := service.Dispatch(context.Background(), application.KindCallRecord, []ports.NotificationItem{
		{ResourceURI: "communications/callRecords/abc123", ResourceID: "abc123", ChangeType: "created"},
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if summary.Dispatched != 1 {
		t.Fatalf("expected 1 dispatched, got %d", summary.Dispatched)
	}

	published := store.Published()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	event := published[0]
	if event.Topic != "callrecords-topic" {
		t.Fatalf("expected callrecords-topic, got %q", event.Topic)
	}
	if event.Event.EventType != "callrecord.created" {
		t.Fatalf("expected event type callrecord.created, got %q", event.Event.EventType)
	}
	if event.Event.FileName != "abc123.json" {
		t.Fatalf("expected file name abc123.json, got %q", event.Event.FileName)
	}
	if event.Event.EventID == "" {
		t.Fatalf("expected minted event id")
	}
	if string(event.Event.Payload) != string(payload) {
		t.Fatalf("published payload mismatch: %s", event.Event.Payload)
	}
	if _, ok := store.Archived("callrecords-container", "abc123.json"); ok {
		t.Fatalf("expected nothing archived with streaming enabled")
	}
}

func TestDispatchUserEventParsesResourceURI(t *testing.T) {
	store := memory.NewStore()
	payload := []byte(`{"id":"evt-9","subject":"standup"}`)
	store.SeedUserEvent("user-1", "evt-9", ports.Resource{ID: "evt-9", Payload: payload})

	service := newTestService(store, false)
	_, err := service.Dispatch(context.Background(), application.KindUserEvent, []ports.NotificationItem{
		{ResourceURI: "Users/user-1/Events/evt-9", ResourceID: "evt-9", ChangeType: "updated"},
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if _, ok := store.Archived("userevents-container", "evt-9.json"); !ok {
		t.Fatalf("expected user event archived under evt-9.json")
	}
}

func TestDispatchRejectsMismatchedResourceURI(t *testing.T) {
	store := memory.NewStore()
	service := newTestService(store, false)

	summary, err := service.Dispatch(context.Background(), application.KindUserEvent, []ports.NotificationItem{
		{ResourceURI: "Users/user-1", ResourceID: "evt-9", ChangeType: "created"},
	})
	if !errors.Is(err, domainerrors.ErrResourceMismatch) {
		t.Fatalf("expected resource mismatch, got %v", err)
	}
	if summary.Dispatched != 0 || len(summary.Failures) != 1 {
		t.Fatalf("expected 0 dispatched and 1 failure, got %d/%d", summary.Dispatched, len(summary.Failures))
	}
	if len(store.Published()) != 0 {
		t.Fatalf("expected no sink writes for mismatched resource")
	}
}

func TestDispatchProcessesItemsIndependently(t *testing.T) {
	store := memory.NewStore()
	store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: []byte(`{"id":"abc123"}`)})

	service := newTestService(store, false)
	summary, err := service.Dispatch(context.Background(), application.KindCallRecord, []ports.NotificationItem{
		{ResourceURI: "communications/callRecords/missing", ResourceID: "missing", ChangeType: "created"},
		{ResourceURI: "communications/callRecords/abc123", ResourceID: "abc123", ChangeType: "created"},
	})
	if !errors.Is(err, domainerrors.ErrUpstreamFetch) {
		t.Fatalf("expected upstream fetch failure, got %v", err)
	}
	if summary.Dispatched != 1 {
		t.Fatalf("expected the healthy item dispatched, got %d", summary.Dispatched)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure diagnostic, got %d", len(summary.Failures))
	}
	if _, ok := store.Archived("callrecords-container", "abc123.json"); !ok {
		t.Fatalf("expected healthy item archived despite sibling failure")
	}
}

func TestDispatchChatMessage(t *testing.T) {
	store := memory.NewStore()
	payload := []byte(`{"id":"m1","body":{"content":"hi"}}`)
	store.SeedChatMessage("c1", "m1", ports.Resource{ID: "m1", Payload: payload})

	service := newTestService(store, true)
	_, err := service.Dispatch(context.Background(), application.KindChatMessage, []ports.NotificationItem{
		{ResourceURI: "chats/c1/messages/m1", ResourceID: "m1", ChangeType: "created"},
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	archived, ok := store.Archived("chatmessages-container", "m1.json")
	if !ok {
		t.Fatalf("expected chat message archived under m1.json")
	}
	if string(archived) != string(payload) {
		t.Fatalf("expected fetched chat payload routed to sink, got %s", archived)
	}
}

func TestDispatchRedeliveryOverwritesArchiveObject(t *testing.T) {
	store := memory.NewStore()
	store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: []byte(`{"id":"abc123","version":1}`)})
	service := newTestService(store, false)

	item := ports.NotificationItem{ResourceURI: "communications/callRecords/abc123", ResourceID: "abc123", ChangeType: "created"}
	if _, err := service.Dispatch(context.Background(), application.KindCallRecord, []ports.NotificationItem{item}); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}

	latest := []byte(`{"id":"abc123","version":2}`)
	store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: latest})
	if _, err := service.Dispatch(context.Background(), application.KindCallRecord, []ports.NotificationItem{item}); err != nil {
		t.Fatalf("redelivered dispatch failed: %v", err)
	}

	if store.ArchivedCount() != 1 {
		t.Fatalf("redelivery must overwrite in place, got %d archived objects", store.ArchivedCount())
	}
	archived, ok := store.Archived("callrecords-container", "abc123.json")
	if !ok {
		t.Fatalf("expected archived object under abc123.json")
	}
	if string(archived) != string(latest) {
		t.Fatalf("expected latest payload after redelivery, got %s", archived)
	}
}

func TestDispatchEmptyEnvelope(t *testing.T) {
	store := memory.NewStore()
	service := newTestService(store, false)

	if _, err := service.Dispatch(context.Background(), application.KindCallRecord, nil); !errors.Is(err, domainerrors.ErrInvalidEnvelope) {
		t.Fatalf("expected invalid envelope, got %v", err)
	}
}
