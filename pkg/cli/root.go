package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/cli/internal/output"
	"github.com/getmockd/mockd-contract/pkg/config"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/tracing"
)

// app carries state shared by every command.
type app struct {
	configPath string
	jsonOutput bool
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      *slog.Logger
	shutdown func(context.Context) error
	closers  []func() error
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mockd-contract",
		Short: "Contract testing with spec-driven mocks",
		Long: `mockd-contract serves mocks generated from OpenAPI, GraphQL, AsyncAPI and
protobuf specs, records what consumers do against them, and replays those
interactions against providers to verify the contract.

Settings are read from .mockd-contract.yaml and MOCKD_CONTRACT_* environment
variables; flags take precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			var errs []error
			if a.shutdown != nil {
				errs = append(errs, a.shutdown(cmd.Context()))
			}
			for _, c := range a.closers {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default "+config.DefaultFile+" if present)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output command results in JSON format")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newMockCmd(a),
		newVerifyCmd(a),
		newCompareCmd(a),
		newResolveCmd(a),
		newDetectCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg
	if err := a.setupLogger(cmd.ErrOrStderr()); err != nil {
		return err
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(tracing.Config{
			Output: cmd.ErrOrStderr(),
			Pretty: cfg.Tracing.Pretty,
		}, a.log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

// setupLogger logs to w, and also as JSON to log.file when configured.
func (a *app) setupLogger(w io.Writer) error {
	level := logging.ParseLevel(a.cfg.Log.Level)
	handler := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(a.cfg.Log.Format),
		Output: w,
	})
	if a.cfg.Log.File != "" {
		f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		handler = logging.NewMultiHandler(handler, logging.NewHandler(logging.Config{
			Level:  level,
			Format: logging.FormatJSON,
			Output: f,
		}))
	}
	a.log = slog.New(handler)
	return nil
}

// printResult writes data as JSON when --json is set, else calls textFn.
func (a *app) printResult(w io.Writer, data any, textFn func()) {
	if a.jsonOutput {
		_ = output.JSON(w, data)
		return
	}
	textFn()
}

// brokerClient returns a client for the configured broker, or nil.
func (a *app) brokerClient() *broker.Client {
	if a.cfg.Broker.URL == "" {
		return nil
	}
	opts := append(a.cfg.BrokerOptions(), broker.WithLogger(a.log))
	return broker.New(a.cfg.Broker.URL, opts...)
}

func (a *app) environment(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Environment
}
