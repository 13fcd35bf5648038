package testing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// RequestLog is a request received by the mock.
type RequestLog struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is the request body as sent on the wire.
	Body string

	// Operation is the resolved operation ID, empty when unmatched.
	Operation string
	// Source is what produced the response: fixture, example or error.
	Source string
	Status int
}

// Header returns a header value using case-insensitive lookup.
func (r *RequestLog) Header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertHeader asserts the request carried key with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()
	actual, ok := r.Header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertHeaderExists asserts the request carried key.
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()
	if _, ok := r.Header(key); !ok {
		t.Errorf("request does not have header %q", key)
	}
}

// AssertQueryParam asserts the request had the query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()
	actual, ok := r.Query[key]
	if !ok {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertBodyContains asserts the request body contains substr.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertJSONBody asserts the request body equals expected as JSON. expected
// may be a string, []byte or any value that encodes to JSON.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var want, got any
	var data []byte
	switch v := expected.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
	}
	if err := json.Unmarshal(data, &want); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}
	if !reflect.DeepEqual(got, want) {
		wantJSON, _ := json.MarshalIndent(want, "", "  ")
		gotJSON, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s", wantJSON, gotJSON)
	}
}

// JSONField extracts a dot-separated field from the JSON body, or nil.
func (r *RequestLog) JSONField(field string) any {
	var current any
	if err := json.Unmarshal([]byte(r.Body), &current); err != nil {
		return nil
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

// AssertJSONField asserts a JSON body field has the expected value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()
	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)", field, expected, expected, actual, actual)
	}
}
