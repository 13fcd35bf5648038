package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/cli/internal/output"
	"github.com/getmockd/mockd-contract/pkg/consumer"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/specstore"
)

type mockFlags struct {
	version         string
	environment     string
	branch          string
	deployed        bool
	specsDir        string
	fixturesDir     string
	fixturePattern  string
	addr            string
	validate        bool
	strict          bool
	noRecord        bool
	proposeFixtures bool
}

func newMockCmd(a *app) *cobra.Command {
	f := &mockFlags{}
	cmd := &cobra.Command{
		Use:   "mock <service>",
		Short: "Serve a contract mock for a provider",
		Long: `Serve a mock generated from the provider's spec. Specs come from the broker,
or from a local directory laid out as <service>/<version>.<ext> with --specs-dir.

When a broker and a consumer identity are configured, every served interaction
is uploaded on shutdown.`,
		Example: `  mockd-contract mock orders --version 1.2.0
  mockd-contract mock orders --deployed --env production
  mockd-contract mock orders --specs-dir ./specs --fixtures ./fixtures --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMock(cmd, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.version, "version", "", "Provider spec version (default latest)")
	fl.StringVar(&f.environment, "env", "", "Environment")
	fl.StringVar(&f.branch, "branch", "", "Spec branch")
	fl.BoolVar(&f.deployed, "deployed", false, "Use the version deployed in --env")
	fl.StringVar(&f.specsDir, "specs-dir", "", "Read specs from a local directory")
	fl.StringVar(&f.fixturesDir, "fixtures", "", "Directory of local fixture files")
	fl.StringVar(&f.fixturePattern, "fixture-pattern", "", "Glob selecting fixture files")
	fl.StringVar(&f.addr, "addr", "", "Listen address")
	fl.BoolVar(&f.validate, "validate", false, "Validate requests and responses against the spec")
	fl.BoolVar(&f.strict, "strict", false, "Reject requests that do not match the spec")
	fl.BoolVar(&f.noRecord, "no-record", false, "Do not upload interactions")
	fl.BoolVar(&f.proposeFixtures, "propose-fixtures", false, "Upload spec-derived responses as pending fixtures")
	return cmd
}

func (a *app) runMock(cmd *cobra.Command, service string, f *mockFlags) error {
	cfg := a.cfg
	opts := consumer.Options{
		Service:          service,
		Version:          f.version,
		Environment:      a.environment(f.environment),
		Branch:           f.branch,
		Deployed:         f.deployed,
		FixturesDir:      firstNonEmpty(f.fixturesDir, cfg.Mock.FixturesDir),
		FixturePattern:   firstNonEmpty(f.fixturePattern, cfg.Mock.FixturePattern),
		Identity:         cfg.IdentityOptions(),
		Addr:             firstNonEmpty(f.addr, cfg.Mock.Addr),
		ValidateRequest:  f.validate || cfg.Mock.ValidateRequest,
		ValidateResponse: f.validate || cfg.Mock.ValidateResponse,
		Strict:           f.strict || cfg.Mock.Strict,
		DisableRecording: f.noRecord || !cfg.Mock.Record,
		ProposeFixtures:  f.proposeFixtures || cfg.Mock.ProposeFixtures,
		FlushThreshold:   cfg.Mock.FlushThreshold,
		Logger:           a.log,
		Metrics:          metrics.New(),
	}
	if c := a.brokerClient(); c != nil {
		opts.Broker = c
	}
	if dir := firstNonEmpty(f.specsDir, cfg.Mock.SpecsDir); dir != "" {
		opts.Specs = specstore.NewDir(dir)
	}
	if opts.Broker == nil && opts.Specs == nil {
		return errors.New("no spec source: set broker.url or pass --specs-dir")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := consumer.Start(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	a.printResult(out, map[string]any{
		"service":    service,
		"version":    session.Spec.Version,
		"specType":   session.Spec.Type,
		"url":        session.URL(),
		"consumer":   session.Identity.String(),
		"operations": session.Operations(),
	}, func() {
		fmt.Fprintf(out, "Mocking %s@%s (%s) at %s\n", service, session.Spec.Version, session.Spec.Type, session.URL())
		tw := output.Table(out)
		for _, op := range session.Operations() {
			fmt.Fprintf(tw, "  %s\t%s %s\n", op.ID, op.Method, op.Path)
		}
		_ = tw.Flush()
		fmt.Fprintln(out, "Press Ctrl+C to stop.")
	})

	<-ctx.Done()

	closeCtx, cancel := newShutdownContext()
	defer cancel()
	if err := session.Close(closeCtx); err != nil {
		return err
	}
	if res := session.FlushResult(); res.Sent > 0 || res.Dropped > 0 {
		a.log.Info("interactions flushed", "sent", res.Sent, "dropped", res.Dropped)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const shutdownTimeout = 10 * time.Second

func newShutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
