package mock

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/detect"
	"github.com/getmockd/mockd-contract/pkg/fixture"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// Response sources.
const (
	SourceFixture = metrics.SourceFixture
	SourceExample = metrics.SourceExample
	SourceError   = metrics.SourceError
)

// Error codes carried in engine-generated error bodies.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeNotImplemented   = "not_implemented"
	ErrCodeProtocolMismatch = "protocol_mismatch"
)

// Options configures an Engine.
type Options struct {
	// ValidateRequest checks each request against its operation.
	ValidateRequest bool

	// ValidateResponse checks each served response against its operation.
	ValidateResponse bool

	// Strict answers requests that fail validation with 400 instead of
	// reporting the violation alongside a normal response.
	Strict bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Result is the outcome of handling one request.
type Result struct {
	Operation  contract.Operation
	Matched    bool
	Params     map[string]string
	Response   *contract.Response
	Source     string
	FixtureID  string
	Validation *validation.Result

	// ResponseValidation is set when Options.ValidateResponse is enabled and a
	// response was derived for a resolved operation.
	ResponseValidation *validation.Result
	Duration           time.Duration

	// Detected is the protocol family the request was classified as, empty
	// when the caller did not classify it.
	Detected contract.SpecType
}

// RequestHandled is emitted after every handled request.
type RequestHandled struct {
	OperationID string
	Operation   contract.Operation
	Request     *contract.Request
	Response    *contract.Response
	Source      string
	Duration    time.Duration
	Detected    contract.SpecType
}

// Engine answers requests for one document. It is read-only after
// construction apart from its observer list and safe for concurrent use.
type Engine struct {
	doc      Document
	fixtures fixture.Index
	opts     Options
	log      *slog.Logger

	mu        sync.RWMutex
	observers []func(RequestHandled)
}

// NewEngine builds an engine serving doc, preferring fixtures in
// prioritized order.
func NewEngine(doc Document, fixtures []contract.Fixture, opts Options) *Engine {
	return &Engine{
		doc:      doc,
		fixtures: fixture.NewIndex(fixtures),
		opts:     opts,
		log:      logging.Component(opts.Logger, "mock-engine"),
	}
}

// Document returns the document the engine serves.
func (e *Engine) Document() Document { return e.doc }

// Operations returns the document's operations.
func (e *Engine) Operations() []contract.Operation {
	return e.doc.Operations()
}

// FixtureCount returns the number of servable fixtures.
func (e *Engine) FixtureCount() int {
	return e.fixtures.Len()
}

// Subscribe registers fn to receive a RequestHandled event for every request.
// Observers run synchronously on the request goroutine.
func (e *Engine) Subscribe(fn func(RequestHandled)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// Handle resolves req and produces its response.
func (e *Engine) Handle(ctx context.Context, req *contract.Request) *Result {
	return e.HandleDetected(ctx, req, "")
}

// HandleDetected is Handle for a request already classified as detected.
// A request bound to another protocol's transport (a WebSocket upgrade or a
// gRPC call) is answered with a 400 protocol_mismatch error instead of being
// resolved against the document.
func (e *Engine) HandleDetected(ctx context.Context, req *contract.Request, detected contract.SpecType) *Result {
	start := time.Now()
	var res *Result
	if docType := e.doc.Type(); detected != "" && detected != docType && detect.TransportBound(req) {
		e.log.Warn("request uses a protocol the document does not describe",
			"detected", detected, "specType", docType, "method", req.Method, "path", req.Path)
		res = &Result{
			Response: errorResponse(http.StatusBadRequest, ErrCodeProtocolMismatch,
				"this mock serves a "+string(docType)+" description but the request is "+string(detected),
				map[string]any{"detected": detected, "specType": docType}),
			Source: SourceError,
		}
	} else {
		res = e.handle(ctx, req)
	}
	res.Detected = detected
	res.Duration = time.Since(start)

	e.opts.Metrics.ObserveRequest(res.Operation.ID, res.Source, res.Response.Status, res.Duration)
	e.emit(RequestHandled{
		OperationID: res.Operation.ID,
		Operation:   res.Operation,
		Request:     req,
		Response:    res.Response,
		Source:      res.Source,
		Duration:    res.Duration,
		Detected:    res.Detected,
	})
	return res
}

func (e *Engine) handle(ctx context.Context, req *contract.Request) *Result {
	op, params, ok := e.doc.Resolve(req)
	if !ok {
		e.log.Debug("no operation matched", "method", req.Method, "path", req.Path)
		details := map[string]any{"method": req.Method, "path": req.Path}
		if h, isHinter := e.doc.(Hinter); isHinter {
			if hints := h.Hints(req); len(hints) > 0 {
				details["nearMisses"] = hints
			}
		}
		return &Result{
			Response: errorResponse(http.StatusNotFound, ErrCodeNotFound, "no operation matches "+req.Method+" "+req.Path, details),
			Source:   SourceError,
		}
	}

	res := &Result{Operation: op, Matched: true, Params: params}

	if e.opts.ValidateRequest || e.opts.Strict {
		res.Validation = e.doc.ValidateRequest(ctx, op, params, req)
		if !res.Validation.Valid {
			e.log.Warn("request does not match the API description",
				"operation", op.ID, "errors", res.Validation.Messages())
			if e.opts.Strict {
				body := validation.NewErrorResponse(res.Validation, http.StatusBadRequest)
				res.Response = &contract.Response{
					Status:  http.StatusBadRequest,
					Headers: map[string]string{"Content-Type": validation.ProblemContentType},
					Body:    body,
				}
				res.Source = SourceError
				return res
			}
		}
	}

	if f, found := e.fixtures.First(op.ID); found {
		res.Response = cloneResponse(f.Data.Response)
		res.Source = SourceFixture
		res.FixtureID = f.ID
	} else if resp, derived := e.doc.Example(op, req); derived {
		res.Response = resp
		res.Source = SourceExample
	} else {
		res.Response = errorResponse(http.StatusNotImplemented, ErrCodeNotImplemented,
			"no fixture or example available for operation "+op.ID, map[string]any{"operation": op.ID})
		res.Source = SourceError
		return res
	}

	if e.opts.ValidateResponse {
		res.ResponseValidation = e.doc.ValidateResponse(ctx, op, params, req, res.Response)
		if !res.ResponseValidation.Valid {
			e.log.Warn("served response does not match the API description",
				"operation", op.ID, "source", res.Source, "errors", res.ResponseValidation.Messages())
		}
	}
	return res
}

func (e *Engine) emit(ev RequestHandled) {
	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	for _, fn := range observers {
		fn(ev)
	}
}

func errorResponse(status int, code, message string, details map[string]any) *contract.Response {
	body := map[string]any{"error": code, "message": message}
	if len(details) > 0 {
		body["details"] = details
	}
	return &contract.Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

// cloneResponse copies the header map so callers cannot mutate the fixture.
func cloneResponse(r *contract.Response) *contract.Response {
	out := *r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	return &out
}
