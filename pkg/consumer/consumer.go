package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getmockd/mockd-contract/internal/id"
	"github.com/getmockd/mockd-contract/internal/retry"
	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/detect"
	"github.com/getmockd/mockd-contract/pkg/fixture"
	"github.com/getmockd/mockd-contract/pkg/identity"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/mock"
	"github.com/getmockd/mockd-contract/pkg/recorder"
	"github.com/getmockd/mockd-contract/pkg/requestlog"
	"github.com/getmockd/mockd-contract/pkg/spec"
	"github.com/getmockd/mockd-contract/pkg/version"
)

// Generator names this package in fixture provenance.
const Generator = "mockd-contract/consumer"

// SpecSource looks up specs. *broker.Client and *specstore.Dir implement it.
type SpecSource interface {
	FetchSpec(ctx context.Context, q broker.SpecQuery) (*contract.Spec, error)
}

// Broker is the subset of *broker.Client a session uses.
type Broker interface {
	SpecSource
	FetchSpecForDeployment(ctx context.Context, q broker.SpecQuery) (*contract.Spec, error)
	FetchFixtures(ctx context.Context, q broker.FixtureQuery) ([]contract.Fixture, error)
	recorder.Uploader
	fixture.Uploader
}

// Options configures a session.
type Options struct {
	// Service is the provider whose spec is mocked.
	Service string

	// Version is the provider spec version. Empty or broker.LatestVersion
	// asks for the newest one.
	Version     string
	Environment string
	Branch      string

	// Deployed resolves Version against what is deployed in Environment
	// instead of what is published.
	Deployed bool

	// Broker is used for spec lookup, fixtures and uploads. May be nil when
	// Specs is set.
	Broker Broker

	// Specs overrides where specs come from, e.g. a local spec store.
	Specs SpecSource

	// FixturesDir adds local fixture files; FixturePattern selects them.
	FixturesDir    string
	FixturePattern string

	// Fixtures are served alongside broker and local fixtures.
	Fixtures []contract.Fixture

	// Identity locates the consumer name and version.
	Identity identity.Options

	// Addr is the listen address. Defaults to an ephemeral local port.
	Addr string

	ValidateRequest  bool
	ValidateResponse bool
	Strict           bool

	// DisableRecording turns off interaction recording.
	DisableRecording bool

	// ProposeFixtures uploads spec-derived responses as pending fixtures.
	ProposeFixtures bool

	FlushThreshold int

	// MaxLogEntries bounds the in-process request log.
	MaxLogEntries int

	Retry    retry.Policy
	Detector *detect.Detector
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Session is a running consumer mock.
type Session struct {
	Spec      *contract.Spec
	Identity  identity.Identity
	Engine    *mock.Engine
	Server    *mock.Server
	Recorder  *recorder.Recorder
	Collector *fixture.Collector

	// Requests holds every request the mock answered, newest first.
	Requests *requestlog.MemoryStore

	log     *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	lastFlush recorder.FlushResult
	closed    bool
}

// Start resolves the spec and fixtures, wires recording and starts the
// server. Spec lookup failures are returned; a *broker.SpecNotFoundError
// carries the versions the store does have.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Service == "" {
		return nil, errors.New("consumer: service is required")
	}
	if opts.Broker == nil && opts.Specs == nil {
		return nil, errors.New("consumer: a broker or spec source is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	log := logging.Component(opts.Logger, "consumer").With("service", opts.Service)

	s, err := resolveSpec(ctx, opts, log)
	if err != nil {
		return nil, err
	}
	doc, err := spec.Load(ctx, s)
	if err != nil {
		return nil, err
	}
	fixtures, err := loadFixtures(ctx, opts, s.Version)
	if err != nil {
		return nil, err
	}

	engine := mock.NewEngine(doc, fixtures, mock.Options{
		ValidateRequest:  opts.ValidateRequest,
		ValidateResponse: opts.ValidateResponse,
		Strict:           opts.Strict,
		Logger:           opts.Logger,
		Metrics:          opts.Metrics,
	})
	requests := requestlog.NewMemoryStore(opts.MaxLogEntries)
	server := mock.NewServer(engine, mock.ServerOptions{
		Addr:       opts.Addr,
		RequestLog: requests,
		Detector:   opts.Detector,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
	})

	sess := &Session{
		Spec:     s,
		Identity: identity.Resolve(opts.Identity),
		Engine:   engine,
		Server:   server,
		Requests: requests,
		log:      log,
		metrics:  opts.Metrics,
	}
	sess.wire(opts, fixtures)

	if err := server.Start(); err != nil {
		return nil, err
	}
	log.Info("consumer mock ready",
		"version", s.Version,
		"url", server.URL(),
		"consumer", sess.Identity.String(),
		"fixtures", len(fixtures))
	return sess, nil
}

func resolveSpec(ctx context.Context, opts Options, log *slog.Logger) (*contract.Spec, error) {
	q := broker.SpecQuery{
		Service:     opts.Service,
		Version:     opts.Version,
		Environment: opts.Environment,
		Branch:      opts.Branch,
	}
	if opts.Deployed && opts.Broker != nil {
		return opts.Broker.FetchSpecForDeployment(ctx, q)
	}

	src := opts.Specs
	if src == nil {
		src = opts.Broker
	}
	if q.Version == "" {
		q.Version = broker.LatestVersion
	}

	s, err := src.FetchSpec(ctx, q)
	var nf *broker.SpecNotFoundError
	if err == nil || !errors.As(err, &nf) || q.Version == broker.LatestVersion || len(nf.AvailableVersions) == 0 {
		return s, err
	}

	best := version.FindBestSemverMatch(q.Version, version.Candidates(nf.AvailableVersions...))
	if best == nil || best.Version == q.Version {
		return nil, err
	}
	log.Warn("requested spec version not found, using closest match",
		"requested", q.Version,
		"resolved", best.Version,
		"available", nf.AvailableVersions)
	q.Version = best.Version
	return src.FetchSpec(ctx, q)
}

func loadFixtures(ctx context.Context, opts Options, specVersion string) ([]contract.Fixture, error) {
	var out []contract.Fixture
	if opts.Broker != nil {
		remote, err := opts.Broker.FetchFixtures(ctx, broker.FixtureQuery{
			Service: opts.Service,
			Version: specVersion,
			Status:  contract.FixtureStatusApproved,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, remote...)
	}
	if opts.FixturesDir != "" {
		local, err := fixture.LoadDir(opts.FixturesDir, opts.FixturePattern)
		if err != nil {
			return nil, fmt.Errorf("load local fixtures: %w", err)
		}
		for _, f := range local {
			if f.Service == "" || f.Service == opts.Service {
				out = append(out, f)
			}
		}
	}
	out = append(out, opts.Fixtures...)
	return fixture.Dedup(out), nil
}

func (s *Session) wire(opts Options, fixtures []contract.Fixture) {
	if !s.Identity.Resolved() {
		s.log.Warn("consumer identity unresolved; interactions and fixtures will not be recorded",
			"error", s.Identity.Require())
		return
	}
	if opts.Broker == nil {
		s.log.Warn("no broker configured; interactions and fixtures will not be recorded")
		return
	}

	if !opts.DisableRecording {
		s.Recorder = recorder.New(opts.Broker, recorder.Options{
			Service:         opts.Service,
			Consumer:        s.Identity.Name,
			ConsumerVersion: s.Identity.Version,
			ProviderVersion: s.Spec.Version,
			Environment:     opts.Environment,
			ConsumerGitSHA:  s.Identity.GitSHA,
			CI:              s.Identity.CI,
			FlushThreshold:  opts.FlushThreshold,
			Retry:           opts.Retry,
			Logger:          opts.Logger,
			Metrics:         opts.Metrics,
		})
	}
	if opts.ProposeFixtures {
		s.Collector = fixture.NewCollector(opts.Broker, fixture.CollectorOptions{
			Service:        opts.Service,
			ServiceVersion: s.Spec.Version,
			Generator:      Generator,
			RunID:          id.UUID(),
			Retry:          opts.Retry,
			Logger:         opts.Logger,
		})
		s.Collector.Seed(fixtures)
	}

	s.Engine.Subscribe(s.observe)
	s.Server.OnClose(s.flush)
}

func (s *Session) observe(ev mock.RequestHandled) {
	if ev.OperationID == "" || ev.Request == nil || ev.Response == nil || ev.Source == mock.SourceError {
		return
	}
	if s.Recorder != nil {
		s.Recorder.Record(context.Background(), recorder.Interaction{
			Operation: ev.OperationID,
			Request:   *ev.Request,
			Response:  *ev.Response,
			Duration:  ev.Duration,
		})
	}
	if s.Collector != nil && ev.Source == mock.SourceExample {
		s.Collector.Propose(ev.OperationID, ev.Request, ev.Response)
	}
}

// flush uploads recorded data. Upload failures are logged and never fail Close.
func (s *Session) flush(ctx context.Context) error {
	if s.Recorder != nil {
		res := s.Recorder.Flush(ctx)
		s.mu.Lock()
		s.lastFlush = res
		s.mu.Unlock()
		if !res.OK() {
			s.log.Warn("interaction upload failed; recorded interactions were dropped",
				"dropped", res.Dropped, "error", res.Err)
		}
	}
	if s.Collector != nil {
		if _, err := s.Collector.Flush(ctx); err != nil {
			s.log.Warn("fixture proposal upload failed", "error", err)
			s.metrics.ObserveFlushFailure(metrics.KindFixtures)
		}
	}
	return nil
}

// URL is the base URL of the running mock.
func (s *Session) URL() string {
	return s.Server.URL()
}

// Operations lists the operations the mock answers.
func (s *Session) Operations() []contract.Operation {
	return s.Engine.Operations()
}

// FlushResult reports the interaction upload made by Close.
func (s *Session) FlushResult() recorder.FlushResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFlush
}

// Close uploads recorded interactions and fixture proposals, then stops the
// server. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.Server.Close(ctx)
}
