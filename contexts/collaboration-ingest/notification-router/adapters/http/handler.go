package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"graphrelay/contexts/collaboration-ingest/notification-router/application"
	domainerrors "graphrelay/contexts/collaboration-ingest/notification-router/domain/errors"
	"graphrelay/contexts/collaboration-ingest/notification-router/ports"
	httptransport "graphrelay/contexts/collaboration-ingest/notification-router/transport/http"
)

// envelopeSchema is the strict wire contract for change notifications.
// Anything the platform sends outside this shape is a client-input error,
// never a reason to touch a sink.
const envelopeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["value"],
	"properties": {
		"value": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["resource", "changeType", "resourceData"],
				"properties": {
					"resource": {"type": "string"},
					"changeType": {"enum": ["created", "updated", "deleted"]},
					"resourceData": {
						"type": "object",
						"required": ["id"],
						"properties": {
							"id": {"type": "string"}
						}
					}
				}
			}
		}
	}
}`

var compiledEnvelopeSchema = mustCompileEnvelopeSchema()

func mustCompileEnvelopeSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(envelopeSchema))
	if err != nil {
		panic(fmt.Sprintf("parse envelope schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("change-notification.json", doc); err != nil {
		panic(fmt.Sprintf("add envelope schema resource: %v", err))
	}
	schema, err := compiler.Compile("change-notification.json")
	if err != nil {
		panic(fmt.Sprintf("compile envelope schema: %v", err))
	}
	return schema
}

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// HandleNotification validates and decodes a webhook body, then hands the
// envelope items to the application service. The handshake short-circuit
// happens at the transport edge before this is called.
func (h Handler) HandleNotification(ctx context.Context, kindName string, body []byte) (httptransport.NotifyResponse, error) {
	kind, err := h.Service.ResolveKind(kindName)
	if err != nil {
		return httptransport.NotifyResponse{}, err
	}

	items, err := decodeEnvelope(body)
	if err != nil {
		return httptransport.NotifyResponse{}, err
	}

	summary, err := h.Service.Dispatch(ctx, kind, items)
	if err != nil {
		return httptransport.NotifyResponse{}, err
	}
	return httptransport.NotifyResponse{
		Message: fmt.Sprintf("dispatched %d of %d notification item(s)", summary.Dispatched, summary.Items),
	}, nil
}

func decodeEnvelope(body []byte) ([]ports.NotificationItem, error) {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidEnvelope, err)
	}
	if err := compiledEnvelopeSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidEnvelope, err)
	}

	var envelope httptransport.ChangeNotification
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidEnvelope, err)
	}

	items := make([]ports.NotificationItem, 0, len(envelope.Value))
	for _, item := range envelope.Value {
		items = append(items, ports.NotificationItem{
			ResourceURI: item.Resource,
			ResourceID:  item.ResourceData.ID,
			ChangeType:  item.ChangeType,
		})
	}
	return items, nil
}
