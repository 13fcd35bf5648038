package recorder

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/getmockd/mockd-contract/internal/id"
	"github.com/getmockd/mockd-contract/internal/retry"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/fixture"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/metrics"
	"github.com/getmockd/mockd-contract/pkg/version"
)

// DefaultFlushThreshold is the CI auto-flush buffer size.
const DefaultFlushThreshold = 10

// Library identifies this module in recorded ClientInfo.
const Library = "mockd-contract-go"

// Uploader sends a batch of interactions to the broker.
type Uploader interface {
	UploadInteractions(ctx context.Context, interactions []contract.ClientInteraction) (*contract.InteractionUploadResult, error)
}

// Options configures a Recorder.
type Options struct {
	Service         string
	Consumer        string
	ConsumerVersion string
	ProviderVersion string
	Environment     string
	ConsumerGitSHA  string

	// CI enables background uploads once FlushThreshold interactions are buffered.
	CI             bool
	FlushThreshold int

	Retry   retry.Policy
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Interaction is what a caller records; the recorder fills in identity,
// ID, timestamp, client metadata and hash.
type Interaction struct {
	Operation string
	Request   contract.Request
	Response  contract.Response
	Duration  time.Duration
}

// FlushResult is the outcome of uploading buffered interactions.
type FlushResult struct {
	// Batches is the number of upload calls made.
	Batches int

	// Sent is the number of interactions offered to the broker.
	Sent int

	// Recorded and Duplicates are the broker's counts over accepted batches.
	Recorded   int
	Duplicates int

	// Dropped is the number of interactions discarded after failed uploads.
	Dropped int

	// Err joins the errors of failed batches.
	Err error
}

// OK reports whether every batch was accepted.
func (r FlushResult) OK() bool { return r.Err == nil }

func (r *FlushResult) merge(o FlushResult) {
	r.Batches += o.Batches
	r.Sent += o.Sent
	r.Recorded += o.Recorded
	r.Duplicates += o.Duplicates
	r.Dropped += o.Dropped
	r.Err = errors.Join(r.Err, o.Err)
}

// Recorder is a concurrency-safe interaction buffer.
type Recorder struct {
	opts     Options
	uploader Uploader
	log      *slog.Logger
	now      func() time.Time
	client   contract.ClientInfo

	mu      sync.Mutex
	queue   []contract.ClientInteraction
	seen    map[string]struct{}
	pending FlushResult

	inflight sync.WaitGroup
}

// New creates a Recorder. A nil uploader makes Flush discard batches.
func New(uploader Uploader, opts Options) *Recorder {
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = DefaultFlushThreshold
	}
	return &Recorder{
		opts:     opts,
		uploader: uploader,
		log:      logging.Component(opts.Logger, "recorder"),
		now:      time.Now,
		seen:     make(map[string]struct{}),
		client: contract.ClientInfo{
			Library:  Library,
			Version:  version.Current(),
			Platform: runtime.GOOS + "/" + runtime.GOARCH + " " + runtime.Version(),
		},
	}
}

// Record buffers in unless an identical interaction was already recorded in
// this session. It reports whether the interaction was buffered.
func (r *Recorder) Record(ctx context.Context, in Interaction) bool {
	h := fixture.HashInteraction(r.opts.Service, r.opts.Consumer, r.opts.ConsumerVersion,
		in.Operation, &in.Request, &in.Response)

	r.mu.Lock()
	if _, dup := r.seen[h]; dup {
		r.mu.Unlock()
		r.opts.Metrics.ObserveRecorded(true)
		return false
	}
	r.seen[h] = struct{}{}
	r.queue = append(r.queue, contract.ClientInteraction{
		ID:              id.ULID(),
		Service:         r.opts.Service,
		Consumer:        r.opts.Consumer,
		ConsumerVersion: r.opts.ConsumerVersion,
		ProviderVersion: r.opts.ProviderVersion,
		Environment:     r.opts.Environment,
		Operation:       in.Operation,
		Request:         in.Request,
		Response:        in.Response,
		Timestamp:       r.now().UTC(),
		Duration:        in.Duration,
		ClientInfo:      r.client,
		ConsumerGitSHA:  r.opts.ConsumerGitSHA,
		Hash:            h,
	})

	var batch []contract.ClientInteraction
	if r.opts.CI && len(r.queue) >= r.opts.FlushThreshold {
		batch = r.takeLocked()
	}
	r.mu.Unlock()
	r.opts.Metrics.ObserveRecorded(false)

	if batch != nil {
		r.inflight.Add(1)
		go func() {
			defer r.inflight.Done()
			res := r.upload(context.WithoutCancel(ctx), batch)
			r.mu.Lock()
			r.pending.merge(res)
			r.mu.Unlock()
		}()
	}
	return true
}

// Len returns the number of buffered interactions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Flush waits for background uploads, uploads the remaining buffer and
// returns the combined outcome since the previous Flush.
func (r *Recorder) Flush(ctx context.Context) FlushResult {
	r.inflight.Wait()

	r.mu.Lock()
	batch := r.takeLocked()
	r.mu.Unlock()

	res := r.upload(ctx, batch)

	r.mu.Lock()
	res.merge(r.pending)
	r.pending = FlushResult{}
	r.mu.Unlock()
	return res
}

// takeLocked empties the queue and the dedup set. r.mu must be held.
func (r *Recorder) takeLocked() []contract.ClientInteraction {
	batch := r.queue
	r.queue = nil
	if len(batch) > 0 {
		r.seen = make(map[string]struct{})
	}
	return batch
}

func (r *Recorder) upload(ctx context.Context, batch []contract.ClientInteraction) FlushResult {
	if len(batch) == 0 {
		return FlushResult{}
	}
	if r.uploader == nil {
		r.log.Debug("no uploader configured, dropping interactions", "count", len(batch))
		return FlushResult{Dropped: len(batch)}
	}

	res := FlushResult{Batches: 1, Sent: len(batch)}
	var out *contract.InteractionUploadResult
	attempts, err := retry.Do(ctx, r.opts.Retry, func() error {
		var uerr error
		out, uerr = r.uploader.UploadInteractions(ctx, batch)
		return uerr
	}, func(err error, wait time.Duration) {
		r.log.Debug("retrying interaction upload", "error", err, "wait", wait)
	})
	if err != nil {
		r.log.Warn("interaction upload failed, batch discarded",
			"count", len(batch), "attempts", attempts, "error", err)
		r.opts.Metrics.ObserveFlushFailure(metrics.KindInteractions)
		res.Dropped = len(batch)
		res.Err = err
		return res
	}
	res.Recorded = out.Recorded
	res.Duplicates = out.Duplicates
	r.log.Info("uploaded interactions", "recorded", out.Recorded, "duplicates", out.Duplicates)
	return res
}
