package httpadapter_test

import (
	"context"
	"errors"
	"testing"

	notificationrouter "graphrelay/contexts/collaboration-ingest/notification-router"
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

func TestHandleNotificationDispatchesCallRecord(t *testing.T) {
	module := notificationrouter.NewInMemoryModule(testRoutes(), false, nil)
	module.Store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: []byte(`{"id":"abc123"}`)})

	body := []byte(`{"value":[{"subscriptionId":"sub-1","clientState":"cs-1","changeType":"created","resource":"communications/callRecords/abc123","resourceData":{"id":"abc123"}}]}`)
	resp, err := module.Handler.HandleNotification(context.Background(), "callrecord", body)
	if err != nil {
		t.Fatalf("handle notification failed: %v", err)
	}
	if resp.Message != "dispatched 1 of 1 notification item(s)" {
		t.Fatalf("unexpected response message: %q", resp.Message)
	}
	if _, ok := module.Store.Archived("callrecords-container", "abc123.json"); !ok {
		t.Fatalf("expected call record archived")
	}
}

func TestHandleNotificationRejectsMalformedBody(t *testing.T) {
	module := notificationrouter.NewInMemoryModule(testRoutes(), false, nil)

	_, err := module.Handler.HandleNotification(context.Background(), "callrecord", []byte(`{"value":`))
	if !errors.Is(err, domainerrors.ErrInvalidEnvelope) {
		t.Fatalf("expected invalid envelope, got %v", err)
	}
}

func TestHandleNotificationSchemaRejectsBeforeFetch(t *testing.T) {
	module := notificationrouter.NewInMemoryModule(testRoutes(), false, nil)
	module.Store.SeedCallRecord(ports.Resource{ID: "abc123", Payload: []byte(`{"id":"abc123"}`)})

	cases := map[string]string{
		"missing value":         `{}`,
		"empty value":           `{"value":[]}`,
		"missing resource data": `{"value":[{"changeType":"created","resource":"communications/callRecords/abc123"}]}`,
		"bad change type":       `{"value":[{"changeType":"archived","resource":"communications/callRecords/abc123","resourceData":{"id":"abc123"}}]}`,
	}
	for name, body := range cases {
		_, err := module.Handler.HandleNotification(context.Background(), "callrecord", []byte(body))
		if !errors.Is(err, domainerrors.ErrInvalidEnvelope) {
			t.Fatalf("%s: expected invalid envelope, got %v", name, err)
		}
	}
	if _, ok := module.Store.Archived("callrecords-container", "abc123.json"); ok {
		t.Fatalf("expected no sink writes for rejected envelopes")
	}
}

func TestHandleNotificationUnknownAndDisabledKinds(t *testing.T) {
	module := notificationrouter.NewInMemoryModule(testRoutes(), false, nil)
	body := []byte(`{"value":[{"changeType":"created","resource":"chats/c1/messages/m1","resourceData":{"id":"m1"}}]}`)

	if _, err := module.Handler.HandleNotification(context.Background(), "mailbox", body); !errors.Is(err, domainerrors.ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
	if _, err := module.Handler.HandleNotification(context.Background(), "chatmessage", body); !errors.Is(err, domainerrors.ErrKindDisabled) {
		t.Fatalf("expected disabled kind, got %v", err)
	}
}

func TestHandleNotificationMultiItemEnvelope(t *testing.T) {
	module := notificationrouter.NewInMemoryModule(testRoutes(), false, nil)
	module.Store.SeedUserEvent("user-1", "evt-1", ports.Resource{ID: "evt-1", Payload: []byte(`{"id":"evt-1"}`)})
	module.Store.SeedUserEvent("user-2", "evt-2", ports.Resource{ID: "evt-2", Payload: []byte(`{"id":"evt-2"}`)})

	body := []byte(`{"value":[
		{"changeType":"created","resource":"Users/user-1/Events/evt-1","resourceData":{"id":"evt-1"}},
		{"changeType":"updated","resource":"Users/user-2/Events/evt-2","resourceData":{"id":"evt-2"}}
	]}`)
	resp, err := module.Handler.HandleNotification(context.Background(), "userevent", body)
	if err != nil {
		t.Fatalf("handle notification failed: %v", err)
	}
	if resp.Message != "dispatched 2 of 2 notification item(s)" {
		t.Fatalf("unexpected response message: %q", resp.Message)
	}
	for _, key := range []string{"evt-1.json", "evt-2.json"} {
		if _, ok := module.Store.Archived("userevents-container", key); !ok {
			t.Fatalf("expected %s archived", key)
		}
	}
}
