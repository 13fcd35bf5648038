// Package detect classifies inbound requests into a protocol family
// (AsyncAPI, GraphQL, gRPC or OpenAPI/REST) so the mock engine can pick the
// right kind of spec document.
package detect

import (
	"net/http"
	"strings"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// asyncPathMarkers are path substrings that indicate a streaming endpoint.
var asyncPathMarkers = []string{"/ws", "/websocket", "/events", "/stream", "/sse"}

// Rule is a caller-supplied detection rule. A rule matches when the request
// path contains any of PathContains or the Content-Type contains any of
// ContentTypes. Rules are checked in order before the built-in rules.
type Rule struct {
	Type         contract.SpecType
	PathContains []string
	ContentTypes []string
}

func (r Rule) matches(path, contentType string) bool {
	for _, p := range r.PathContains {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	ct := strings.ToLower(contentType)
	for _, c := range r.ContentTypes {
		if c != "" && strings.Contains(ct, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// Detector classifies requests. The zero value applies only the built-in rules.
type Detector struct {
	rules []Rule
}

// New creates a Detector with optional custom rules.
func New(rules ...Rule) *Detector {
	return &Detector{rules: append([]Rule(nil), rules...)}
}

// Detect returns the spec type for req. The boolean is false when the request
// is not a well-formed HTTP request (missing method or path) and no rule matched.
func (d *Detector) Detect(req *contract.Request) (contract.SpecType, bool) {
	if req == nil {
		return "", false
	}
	contentType := req.Header("Content-Type")

	if d != nil {
		for _, r := range d.rules {
			if r.matches(req.Path, contentType) {
				return r.Type, true
			}
		}
	}

	switch {
	case isAsync(req):
		return contract.SpecTypeAsyncAPI, true
	case isGraphQL(req, contentType):
		return contract.SpecTypeGraphQL, true
	case isGRPC(contentType):
		return contract.SpecTypeGRPC, true
	case req.Method != "" && req.Path != "":
		return contract.SpecTypeOpenAPI, true
	}
	return "", false
}

// Detect classifies req with the built-in rules only.
func Detect(req *contract.Request) (contract.SpecType, bool) {
	var d *Detector
	return d.Detect(req)
}

// DetectHTTP classifies a raw *http.Request. body is the already-read request body.
func (d *Detector) DetectHTTP(r *http.Request, body []byte) (contract.SpecType, bool) {
	if r == nil {
		return "", false
	}
	req := &contract.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: contract.FlattenHeader(r.Header),
		Body:    contract.DecodeBody(r.Header.Get("Content-Type"), body),
	}
	return d.Detect(req)
}

// TransportBound reports whether req carries a transport-level signal that
// only one protocol family can answer: a WebSocket upgrade or a gRPC
// content type. Path markers and GraphQL-shaped bodies are not binding.
func TransportBound(req *contract.Request) bool {
	if req == nil {
		return false
	}
	return strings.EqualFold(req.Header("Upgrade"), "websocket") || isGRPC(req.Header("Content-Type"))
}

func isAsync(req *contract.Request) bool {
	if strings.EqualFold(req.Header("Upgrade"), "websocket") {
		return true
	}
	if strings.Contains(strings.ToLower(req.Header("Connection")), "upgrade") {
		return true
	}
	if strings.Contains(strings.ToLower(req.Header("Accept")), "text/event-stream") {
		return true
	}
	path := strings.ToLower(req.Path)
	for _, marker := range asyncPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

func isGraphQL(req *contract.Request, contentType string) bool {
	if strings.Contains(strings.ToLower(req.Path), "graphql") {
		return true
	}
	if strings.Contains(strings.ToLower(contentType), "application/graphql") {
		return true
	}
	return looksLikeGraphQLBody(req.Body)
}

// looksLikeGraphQLBody reports whether the body is an object carrying a
// string "query" or "mutation" field.
func looksLikeGraphQLBody(body any) bool {
	obj, ok := body.(map[string]any)
	if !ok {
		return false
	}
	for _, key := range []string{"query", "mutation"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func isGRPC(contentType string) bool {
	return strings.EqualFold(strings.TrimSpace(contentType), "application/grpc")
}
