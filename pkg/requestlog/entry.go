package requestlog

import (
	"time"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// MaxBodySize is the number of body bytes kept per entry.
const MaxBodySize = 10 << 10

// Entry captures one request and how the mock answered it.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the raw request body, truncated to MaxBodySize.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// Operation is the resolved operation, empty when nothing matched.
	Operation string `json:"operation,omitempty"`

	// Source is fixture, example or error.
	Source string `json:"source"`

	Status     int   `json:"status"`
	DurationMs int64 `json:"durationMs"`

	// Detected is the protocol family the request was classified as.
	Detected string `json:"detected,omitempty"`

	// NearMisses lists operations close to an unmatched request.
	NearMisses []string `json:"nearMisses,omitempty"`
}

// NewEntry builds an entry from a normalized request and its raw body.
func NewEntry(req *contract.Request, raw []byte) *Entry {
	e := &Entry{
		Timestamp: time.Now().UTC(),
		Method:    req.Method,
		Path:      req.Path,
		Query:     req.Query,
		Headers:   req.Headers,
		BodySize:  len(raw),
	}
	if len(raw) > MaxBodySize {
		raw = raw[:MaxBodySize]
	}
	e.Body = string(raw)
	return e
}

// Matched reports whether the request resolved to an operation.
func (e *Entry) Matched() bool {
	return e.Operation != ""
}
