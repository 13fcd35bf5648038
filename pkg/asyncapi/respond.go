package asyncapi

import (
	"context"
	"net/http"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/openapi"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// Example returns the first message example of op, or a payload synthesized
// from the message schema.
func (d *Document) Example(op contract.Operation, _ *contract.Request) (*contract.Response, bool) {
	o, ok := d.byID[op.ID]
	if !ok {
		return nil, false
	}
	if o.meta.Kind == contract.KindPublish {
		return &contract.Response{Status: http.StatusAccepted}, true
	}
	for _, m := range o.messages {
		if body, ok := messageExample(m); ok {
			return &contract.Response{
				Status:  http.StatusOK,
				Headers: map[string]string{"Content-Type": "application/json"},
				Body:    body,
			}, true
		}
	}
	return nil, false
}

func messageExample(m *message) (any, bool) {
	if len(m.examples) > 0 {
		return m.examples[0], true
	}
	payload, ok := m.payload.(map[string]any)
	if !ok {
		return nil, false
	}
	if examples, ok := payload["examples"].([]any); ok && len(examples) > 0 {
		return examples[0], true
	}
	return openapi.ExampleFromSchema(payload, m.name)
}

// ValidateRequest checks a published message against the payload schemas.
// Subscribe requests carry no message and always pass.
func (d *Document) ValidateRequest(_ context.Context, op contract.Operation, _ map[string]string, req *contract.Request) *validation.Result {
	o, ok := d.byID[op.ID]
	if !ok || o.meta.Kind != contract.KindPublish {
		return validation.Valid()
	}
	return o.validatePayload(validation.LocationPayload, req.Body)
}

// ValidateResponse checks a served message against the payload schemas.
func (d *Document) ValidateResponse(_ context.Context, op contract.Operation, _ map[string]string, _ *contract.Request, resp *contract.Response) *validation.Result {
	o, ok := d.byID[op.ID]
	if !ok || o.meta.Kind != contract.KindSubscribe || resp == nil {
		return validation.Valid()
	}
	return o.validatePayload(validation.LocationResponse, resp.Body)
}

// validatePayload passes when any of the operation's messages accepts v and
// reports the first message's errors otherwise.
func (o *operation) validatePayload(location string, v any) *validation.Result {
	var first *validation.Result
	for _, m := range o.messages {
		if m.schema == nil {
			return validation.Valid()
		}
		res := m.schema.Validate(location, v)
		if res.Valid {
			return res
		}
		if first == nil {
			first = res
		}
	}
	if first == nil {
		return validation.Valid()
	}
	return first
}
