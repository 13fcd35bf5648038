package testing

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// FixtureBuilder builds a fixture using a fluent API.
type FixtureBuilder struct {
	server  *MockServer
	fixture contract.Fixture
	err     error
}

// setError keeps the first error encountered.
func (b *FixtureBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error encountered during building.
func (b *FixtureBuilder) Err() error {
	return b.err
}

func (b *FixtureBuilder) response() *contract.Response {
	return b.fixture.Data.Response
}

// WithStatus sets the response status. Default is 200.
func (b *FixtureBuilder) WithStatus(status int) *FixtureBuilder {
	b.response().Status = status
	return b
}

// WithHeader sets a response header.
func (b *FixtureBuilder) WithHeader(key, value string) *FixtureBuilder {
	r := b.response()
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return b
}

// WithBody sets the response body. Strings and byte slices are sent as-is;
// other values are treated as JSON.
func (b *FixtureBuilder) WithBody(body any) *FixtureBuilder {
	switch v := body.(type) {
	case string:
		b.response().Body = v
	case []byte:
		b.response().Body = string(v)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets a JSON response body and its Content-Type.
func (b *FixtureBuilder) WithJSON(body any) *FixtureBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		b.setError(fmt.Errorf("WithJSON: %w", err))
		return b
	}
	b.response().Body = v
	if _, ok := b.response().Headers["Content-Type"]; !ok {
		b.WithHeader("Content-Type", "application/json")
	}
	return b
}

// WithPriority orders fixtures of the same operation; lower is served first.
func (b *FixtureBuilder) WithPriority(priority int) *FixtureBuilder {
	b.fixture.Priority = priority
	return b
}

// WithNotes attaches a description to the fixture.
func (b *FixtureBuilder) WithNotes(notes string) *FixtureBuilder {
	b.fixture.Notes = notes
	return b
}

// Pending marks the fixture as pending; approved fixtures win over it.
func (b *FixtureBuilder) Pending() *FixtureBuilder {
	b.fixture.Status = contract.FixtureStatusPending
	return b
}

// Add registers the fixture. A build error fails the test.
func (b *FixtureBuilder) Add() {
	b.server.t.Helper()
	if b.err != nil {
		b.server.t.Errorf("fixture %s: %v", b.fixture.Operation, b.err)
		return
	}
	b.server.addFixture(b.fixture)
}

// RespondWith sets status and body.
func (b *FixtureBuilder) RespondWith(status int, body any) *FixtureBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondNotFound responds 404 with a JSON error.
func (b *FixtureBuilder) RespondNotFound() *FixtureBuilder {
	return b.RespondWith(http.StatusNotFound, map[string]string{"error": "not_found"})
}

// RespondServerError responds 500 with a JSON error.
func (b *FixtureBuilder) RespondServerError(message string) *FixtureBuilder {
	return b.RespondWith(http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": message})
}
