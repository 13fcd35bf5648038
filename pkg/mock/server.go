package mock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/detect"
	"github.com/getmockd/mockd-contract/pkg/httputil"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/requestlog"
	"github.com/getmockd/mockd-contract/pkg/tracing"
)

// Reserved paths answered by the server itself.
const (
	HealthPath   = "/__mockd/health"
	MetricsPath  = "/__mockd/metrics"
	RequestsPath = "/__mockd/requests"
)

// Response headers describing how a request was answered.
const (
	HeaderOperation  = "X-Mockd-Operation"
	HeaderSource     = "X-Mockd-Source"
	HeaderValidation = "X-Mockd-Validation"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// Addr is the listen address. Empty or port 0 picks an ephemeral port on
	// 127.0.0.1.
	Addr string

	// MaxBodySize bounds request bodies. Defaults to httputil.DefaultMaxBodySize.
	MaxBodySize int64

	// ShutdownTimeout bounds Close when the caller's context has no deadline.
	ShutdownTimeout time.Duration

	// RequestLog, when set, keeps every answered request and is served at
	// RequestsPath.
	RequestLog requestlog.Store

	// Detector classifies each request's protocol family. The result is
	// recorded in the request log, and a WebSocket upgrade or gRPC call the
	// document cannot serve is rejected. Nil applies the built-in rules.
	Detector *detect.Detector
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine  *Engine
	opts    ServerOptions
	log     *slog.Logger
	handler http.Handler

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	running    bool
	startTime  time.Time
	closers    []func(context.Context) error
	serveErr   chan error
}

// NewServer creates a server for engine. It does not listen until Start.
func NewServer(engine *Engine, opts ServerOptions) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		engine: engine,
		opts:   opts,
		log:    logging.Component(opts.Logger, "mock-server"),
	}
	s.handler = tracing.Handler(http.HandlerFunc(s.serve), "mockd-contract")
	return s
}

// ServeHTTP implements http.Handler, so a Server can also be mounted on an
// httptest.Server without Start.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OnClose registers fn to run once the listener is closed and in-flight
// requests have drained. Functions run in registration order; their errors
// are joined into Close's result.
func (s *Server) OnClose(fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server is already running")
	}

	addr := s.opts.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serveErr = make(chan error, 1)
	s.running = true
	s.startTime = time.Now()

	go func(srv *http.Server, errc chan<- error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("mock server error", "error", err)
			errc <- err
		}
		close(errc)
	}(s.httpServer, s.serveErr)

	s.log.Info("mock server started",
		"addr", ln.Addr().String(),
		"specType", s.engine.Document().Type(),
		"operations", len(s.engine.Operations()),
		"fixtures", s.engine.FixtureCount())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Close stops accepting connections, waits for in-flight requests to
// finish, then runs the registered close functions. Work recorded by a
// request that was still being served is visible to the closers.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	srv := s.httpServer
	running := s.running
	s.running = false
	s.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if running && srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
		if err, ok := <-s.serveErr; ok && err != nil {
			errs = append(errs, err)
		}
		s.log.Info("mock server stopped", "uptime", time.Since(s.startTime).Round(time.Millisecond))
	}

	for _, fn := range closers {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case HealthPath:
		s.handleHealth(w, r)
		return
	case MetricsPath:
		s.opts.Metrics.Handler().ServeHTTP(w, r)
		return
	case RequestsPath:
		if s.opts.RequestLog != nil {
			s.handleRequests(w, r)
			return
		}
	}

	req, raw, err := httputil.ReadRequest(r, s.opts.MaxBodySize)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	detected, _ := s.opts.Detector.DetectHTTP(r, raw)
	res := s.engine.HandleDetected(r.Context(), req, detected)
	s.logRequest(req, raw, res)

	if res.Operation.ID != "" {
		w.Header().Set(HeaderOperation, res.Operation.ID)
	}
	w.Header().Set(HeaderSource, res.Source)
	if res.Validation != nil && !res.Validation.Valid {
		w.Header().Set(HeaderValidation, "failed")
	}
	if err := httputil.WriteResponse(w, res.Response); err != nil {
		s.log.Warn("failed to write response", "operation", res.Operation.ID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"specType":   s.engine.Document().Type(),
		"operations": len(s.engine.Operations()),
		"fixtures":   s.engine.FixtureCount(),
	})
}

func (s *Server) logRequest(req *contract.Request, raw []byte, res *Result) {
	if s.opts.RequestLog == nil {
		return
	}
	entry := requestlog.NewEntry(req, raw)
	entry.Operation = res.Operation.ID
	entry.Source = res.Source
	entry.Status = res.Response.Status
	entry.DurationMs = res.Duration.Milliseconds()
	entry.Detected = string(res.Detected)
	if !res.Matched {
		if h, ok := s.engine.Document().(Hinter); ok {
			entry.NearMisses = h.Hints(req)
		}
	}
	s.opts.RequestLog.Log(entry)
}

// handleRequests lists the request log on GET and clears it on DELETE.
func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := &requestlog.Filter{
			Method:    q.Get("method"),
			Path:      q.Get("path"),
			Operation: q.Get("operation"),
			Source:    q.Get("source"),
			Unmatched: q.Get("unmatched") == "true",
		}
		filter.Status, _ = strconv.Atoi(q.Get("status"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		filter.Offset, _ = strconv.Atoi(q.Get("offset"))
		entries := s.opts.RequestLog.List(filter)
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"requests": entries,
			"count":    len(entries),
			"total":    s.opts.RequestLog.Count(),
		})
	case http.MethodDelete:
		s.opts.RequestLog.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or DELETE")
	}
}
