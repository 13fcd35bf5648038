package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/compare"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/tracing"
)

// DefaultTimeout bounds a single replayed request.
const DefaultTimeout = 30 * time.Second

// Outcome labels.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// TaskState is the lifecycle position of a verification task.
type TaskState string

// Task states. SUBMITTED is terminal; a task is never retried.
const (
	StateOpen       TaskState = "OPEN"
	StateProcessing TaskState = "PROCESSING"
	StateSubmitted  TaskState = "SUBMITTED"
)

// TaskSource fetches tasks and accepts their results. *broker.Client
// implements it.
type TaskSource interface {
	FetchVerificationTasks(ctx context.Context, provider, environment string) ([]contract.VerificationTask, error)
	SubmitVerificationResults(ctx context.Context, sub *contract.VerificationSubmission) (*broker.SubmitResult, error)
}

// Hook runs around a single interaction.
type Hook func(ctx context.Context, in contract.ClientInteraction) error

// Options configures a Verifier.
type Options struct {
	// BaseURL is where the provider under test listens.
	BaseURL string

	Provider        string
	ProviderVersion string
	ProviderGitSHA  string
	Environment     string

	// StateHandlers are keyed by operation id.
	StateHandlers map[string]Hook

	// Cleanup runs after every interaction.
	Cleanup Hook

	// Timeout bounds each replayed request. Defaults to DefaultTimeout.
	Timeout time.Duration

	Compare    compare.Options
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// TaskReport is the outcome of one task.
type TaskReport struct {
	TaskID          string
	Consumer        string
	ConsumerVersion string
	State           TaskState
	Results         []contract.VerificationResult
	Submission      *broker.SubmitResult
	SubmitErr       error
}

// Passed reports whether every interaction of the task succeeded.
func (t *TaskReport) Passed() bool {
	for _, r := range t.Results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Report is the outcome of a Verify run.
type Report struct {
	Provider        string
	ProviderVersion string
	TaskIDs         []string
	Results         []contract.VerificationResult
	Tasks           []*TaskReport

	// Skipped is set when the provider identity was incomplete and nothing ran.
	Skipped bool
}

// Failed counts failed results across all tasks.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success {
			n++
		}
	}
	return n
}

// Passed reports whether every result succeeded and every task was submitted.
func (r *Report) Passed() bool {
	if r.Failed() > 0 {
		return false
	}
	for _, t := range r.Tasks {
		if t.State != StateSubmitted {
			return false
		}
	}
	return true
}

// Verifier replays verification tasks against a provider.
type Verifier struct {
	source     TaskSource
	opts       Options
	comparator *compare.Comparator
	client     *http.Client
	log        *slog.Logger
}

// New creates a Verifier.
func New(source TaskSource, opts Options) (*Verifier, error) {
	if source == nil {
		return nil, errors.New("verify: task source is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("verify: base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Compare.Logger == nil {
		opts.Compare.Logger = logging.Component(opts.Logger, "compare")
	}
	cmp, err := compare.New(opts.Compare)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: tracing.Transport(nil),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Verifier{
		source:     source,
		opts:       opts,
		comparator: cmp,
		client:     client,
		log:        logging.Component(opts.Logger, "verify"),
	}, nil
}

// Verify fetches the provider's open tasks and processes each to completion.
// The error reports a failed task fetch or any failed submission; the report
// is returned either way once tasks were fetched.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	report := &Report{Provider: v.opts.Provider, ProviderVersion: v.opts.ProviderVersion}
	if v.opts.Provider == "" || v.opts.ProviderVersion == "" {
		v.log.Warn("provider identity incomplete; skipping verification",
			"provider", v.opts.Provider,
			"providerVersion", v.opts.ProviderVersion)
		report.Skipped = true
		return report, nil
	}

	tasks, err := v.source.FetchVerificationTasks(ctx, v.opts.Provider, v.opts.Environment)
	if err != nil {
		return nil, err
	}
	v.log.Info("verification tasks fetched", "provider", v.opts.Provider, "tasks", len(tasks))

	var errs []error
	for i := range tasks {
		tr := v.runTask(ctx, &tasks[i])
		report.Tasks = append(report.Tasks, tr)
		report.TaskIDs = append(report.TaskIDs, tr.TaskID)
		report.Results = append(report.Results, tr.Results...)
		if tr.SubmitErr != nil {
			errs = append(errs, tr.SubmitErr)
		}
	}
	return report, errors.Join(errs...)
}

func (v *Verifier) runTask(ctx context.Context, task *contract.VerificationTask) *TaskReport {
	tr := &TaskReport{
		TaskID:          task.ID,
		Consumer:        task.Consumer,
		ConsumerVersion: task.ConsumerVersion,
		State:           StateOpen,
	}
	ctx, span := tracing.Tracer().Start(ctx, "verify.task")
	defer span.End()
	span.SetAttributes(
		attribute.String("mockd.task.id", task.ID),
		attribute.String("mockd.consumer", task.Consumer),
		attribute.Int("mockd.task.interactions", len(task.Interactions)),
	)

	tr.State = StateProcessing
	tr.Results = make([]contract.VerificationResult, 0, len(task.Interactions))
	for _, in := range task.Interactions {
		res := v.runInteraction(ctx, in)
		tr.Results = append(tr.Results, res)
		outcome := OutcomePassed
		if !res.Success {
			outcome = OutcomeFailed
		}
		v.opts.Metrics.ObserveVerification(outcome)
	}

	sub := &contract.VerificationSubmission{
		TaskID:          task.ID,
		Provider:        v.opts.Provider,
		ProviderVersion: v.opts.ProviderVersion,
		ProviderGitSHA:  v.opts.ProviderGitSHA,
		Consumer:        task.Consumer,
		ConsumerVersion: task.ConsumerVersion,
		ConsumerGitSHA:  task.ConsumerGitSHA,
		Environment:     v.opts.Environment,
		SpecType:        task.SpecType,
		Results:         tr.Results,
	}
	ack, err := v.source.SubmitVerificationResults(ctx, sub)
	if err != nil {
		tr.SubmitErr = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		v.log.Error("submitting verification results failed", "task", task.ID, "error", err)
		return tr
	}
	tr.Submission = ack
	tr.State = StateSubmitted
	v.log.Info("task verified",
		"task", task.ID,
		"consumer", task.Consumer,
		"consumerVersion", task.ConsumerVersion,
		"interactions", len(tr.Results),
		"passed", tr.Passed())
	return tr
}
