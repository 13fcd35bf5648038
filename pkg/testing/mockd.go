package testing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/consumer"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/spec"
)

// DefaultVersion is the spec version used when none is given.
const DefaultVersion = "local"

const stopTimeout = 5 * time.Second

// Option configures a MockServer.
type Option func(*MockServer)

// WithVersion sets the version the spec file is served as.
func WithVersion(v string) Option {
	return func(m *MockServer) { m.version = v }
}

// WithBroker records interactions to b.
func WithBroker(b consumer.Broker) Option {
	return func(m *MockServer) { m.opts.Broker = b }
}

// WithConsumer sets the consumer identity used for recording.
func WithConsumer(name, version string) Option {
	return func(m *MockServer) {
		m.opts.Identity.Name = name
		m.opts.Identity.Version = version
	}
}

// WithValidation validates requests and responses against the spec.
// Strict mode answers invalid requests with an error.
func WithValidation(strict bool) Option {
	return func(m *MockServer) {
		m.opts.ValidateRequest = true
		m.opts.ValidateResponse = true
		m.opts.Strict = strict
	}
}

// WithFixturesDir serves fixture files found under dir.
func WithFixturesDir(dir string) Option {
	return func(m *MockServer) { m.opts.FixturesDir = dir }
}

// WithLogger sets the logger. Tests are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(m *MockServer) { m.opts.Logger = l }
}

// MockServer is a contract mock scoped to one test.
type MockServer struct {
	t        testing.TB
	service  string
	specPath string
	version  string
	opts     consumer.Options

	mu       sync.RWMutex
	fixtures []contract.Fixture
	session  *consumer.Session
	stopped  bool
}

// New creates a mock for service from the spec file at specPath. The mock is
// stopped automatically when the test completes.
func New(t testing.TB, service, specPath string, opts ...Option) *MockServer {
	t.Helper()
	m := &MockServer{
		t:        t,
		service:  service,
		specPath: specPath,
		version:  DefaultVersion,
		opts: consumer.Options{
			Service: service,
			Logger:  logging.Nop(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	t.Cleanup(m.Stop)
	return m
}

// Start loads the spec, starts the server and returns its base URL. Fixtures
// must be added before Start.
func (m *MockServer) Start() string {
	m.t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return m.session.URL()
	}

	content, err := os.ReadFile(m.specPath)
	if err != nil {
		m.t.Fatalf("read spec: %v", err)
	}
	typ := spec.DetectType(string(content))
	if typ == "" {
		m.t.Fatalf("%s: %v", m.specPath, spec.ErrUnknownType)
	}

	opts := m.opts
	opts.Version = m.version
	opts.Fixtures = append([]contract.Fixture(nil), m.fixtures...)
	opts.Specs = staticSpec{&contract.Spec{
		Service: m.service,
		Version: m.version,
		Type:    typ,
		Content: string(content),
	}}

	s, err := consumer.Start(context.Background(), opts)
	if err != nil {
		m.t.Fatalf("start mock: %v", err)
	}
	m.session = s
	return s.URL()
}

// Stop closes the mock and uploads recorded interactions.
func (m *MockServer) Stop() {
	m.mu.Lock()
	s := m.session
	if s == nil || m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		m.t.Errorf("stop mock: %v", err)
	}
}

// URL returns the base URL, or "" before Start.
func (m *MockServer) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.URL()
}

// Session exposes the underlying consumer session.
func (m *MockServer) Session() *consumer.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Client returns an HTTP client suitable for talking to the mock.
func (m *MockServer) Client() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// Fixture starts building a fixture for operation.
func (m *MockServer) Fixture(operation string) *FixtureBuilder {
	return &FixtureBuilder{
		server: m,
		fixture: contract.Fixture{
			Service:     m.service,
			Operation:   operation,
			Status:      contract.FixtureStatusApproved,
			Source:      contract.FixtureSourceManual,
			CreatedFrom: contract.Provenance{Type: contract.ProvenanceManual},
			Data: contract.FixtureData{
				Response: &contract.Response{Status: http.StatusOK},
			},
		},
	}
}

func (m *MockServer) addFixture(f contract.Fixture) {
	m.t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.t.Errorf("fixture for %s added after Start; it will not be served", f.Operation)
		return
	}
	m.fixtures = append(m.fixtures, f)
}

// Reset clears the request log.
func (m *MockServer) Reset() {
	if s := m.Session(); s != nil {
		s.Requests.Clear()
	}
}

// Requests returns logged requests in the order they arrived.
func (m *MockServer) Requests() []RequestLog {
	s := m.Session()
	if s == nil {
		return nil
	}
	entries := s.Requests.List(nil)
	out := make([]RequestLog, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = RequestLog{
			Method:    e.Method,
			Path:      e.Path,
			Headers:   e.Headers,
			Query:     e.Query,
			Body:      e.Body,
			Operation: e.Operation,
			Source:    e.Source,
			Status:    e.Status,
		}
	}
	return out
}

// AssertCalled asserts at least one request matched method and path.
// Path segments written as {name} match any value.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if m.CallCount(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not\n%s", method, path, m.describe())
	}
}

// AssertNotCalled asserts no request matched method and path.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if n := m.CallCount(method, path); n > 0 {
		t.Errorf("expected %s %s not to be called, but it was called %d time(s)", method, path, n)
	}
}

// AssertCalledTimes asserts exactly n requests matched method and path.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, n int) {
	t.Helper()
	if got := m.CallCount(method, path); got != n {
		t.Errorf("expected %s %s to be called %d time(s), got %d\n%s", method, path, n, got, m.describe())
	}
}

// AssertOperationCalled asserts at least one request resolved to operation.
func (m *MockServer) AssertOperationCalled(t testing.TB, operation string) {
	t.Helper()
	for _, r := range m.Requests() {
		if r.Operation == operation {
			return
		}
	}
	t.Errorf("expected operation %s to be called\n%s", operation, m.describe())
}

// CallCount returns the number of requests matching method and path.
func (m *MockServer) CallCount(method, path string) int {
	count := 0
	for _, r := range m.Requests() {
		if strings.EqualFold(r.Method, method) && matchesPath(r.Path, path) {
			count++
		}
	}
	return count
}

func (m *MockServer) describe() string {
	reqs := m.Requests()
	if len(reqs) == 0 {
		return "no requests were received"
	}
	var b strings.Builder
	b.WriteString("received:")
	for _, r := range reqs {
		fmt.Fprintf(&b, "\n  %s %s -> %d (%s)", r.Method, r.Path, r.Status, r.Source)
	}
	return b.String()
}

// matchesPath supports exact matching and {param} segments.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}
	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}
	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}

// staticSpec serves a single spec regardless of the requested version.
type staticSpec struct {
	spec *contract.Spec
}

func (s staticSpec) FetchSpec(_ context.Context, q broker.SpecQuery) (*contract.Spec, error) {
	if q.Service != s.spec.Service {
		return nil, &broker.SpecNotFoundError{
			Service:           q.Service,
			Version:           q.Version,
			AvailableVersions: []string{s.spec.Version},
		}
	}
	return s.spec, nil
}
