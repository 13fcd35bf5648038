package fixture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/mockd-contract/internal/id"
	"github.com/getmockd/mockd-contract/internal/retry"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
)

// Uploader sends a batch of fixture proposals to the broker.
type Uploader interface {
	UploadFixtures(ctx context.Context, fixtures []contract.Fixture) (*contract.FixtureUploadResult, error)
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	Service        string
	ServiceVersion string
	Generator      string
	RunID          string
	Retry          retry.Policy
	Logger         *slog.Logger
}

// Collector turns traffic served by a mock into pending fixture proposals.
// Proposals are deduplicated by Hash and uploaded as one batch on Flush.
type Collector struct {
	mu        sync.Mutex
	opts      CollectorOptions
	uploader  Uploader
	seen      map[string]struct{}
	proposals []contract.Fixture
	log       *slog.Logger
	now       func() time.Time
}

// NewCollector creates a Collector. uploader may be nil, in which case Flush
// only discards the proposals.
func NewCollector(uploader Uploader, opts CollectorOptions) *Collector {
	return &Collector{
		opts:     opts,
		uploader: uploader,
		seen:     make(map[string]struct{}),
		log:      logging.Component(logging.OrNop(opts.Logger), "fixture-collector"),
		now:      time.Now,
	}
}

// Seed marks existing fixtures as known so they are never proposed again.
func (c *Collector) Seed(fixtures []contract.Fixture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range fixtures {
		c.seen[Hash(f.Operation, f.Data)] = struct{}{}
	}
}

// Propose records a served interaction as a pending fixture. It returns false
// when an equal fixture was already seen.
func (c *Collector) Propose(operation string, req *contract.Request, resp *contract.Response) bool {
	if operation == "" || resp == nil {
		return false
	}
	data := contract.FixtureData{Request: req, Response: resp}
	h := Hash(operation, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[h]; dup {
		return false
	}
	c.seen[h] = struct{}{}
	c.proposals = append(c.proposals, contract.Fixture{
		ID:             id.UUID(),
		Service:        c.opts.Service,
		ServiceVersion: c.opts.ServiceVersion,
		Operation:      operation,
		Status:         contract.FixtureStatusPending,
		Source:         contract.FixtureSourceConsumer,
		Data:           data,
		CreatedFrom: contract.Provenance{
			Type:      contract.ProvenanceTestOutput,
			Generator: c.opts.Generator,
			RunID:     c.opts.RunID,
		},
		CreatedAt: c.now().UTC(),
	})
	return true
}

// Len returns the number of buffered proposals.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.proposals)
}

// Proposals returns a copy of the buffered proposals.
func (c *Collector) Proposals() []contract.Fixture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]contract.Fixture(nil), c.proposals...)
}

// Flush uploads buffered proposals as one batch, retrying with backoff, and
// clears the buffer. The buffer is cleared even when every attempt fails; the
// seen set is kept so the same traffic is not proposed twice in one session.
func (c *Collector) Flush(ctx context.Context) (*contract.FixtureUploadResult, error) {
	c.mu.Lock()
	batch := c.proposals
	c.proposals = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return &contract.FixtureUploadResult{}, nil
	}
	if c.uploader == nil {
		c.log.Debug("no uploader configured, dropping fixture proposals", "count", len(batch))
		return &contract.FixtureUploadResult{}, nil
	}

	var res *contract.FixtureUploadResult
	attempts, err := retry.Do(ctx, c.opts.Retry, func() error {
		var uerr error
		res, uerr = c.uploader.UploadFixtures(ctx, batch)
		return uerr
	}, func(err error, wait time.Duration) {
		c.log.Debug("retrying fixture upload", "error", err, "wait", wait)
	})
	if err != nil {
		c.log.Warn("fixture upload failed", "count", len(batch), "attempts", attempts, "error", err)
		return nil, err
	}
	c.log.Info("uploaded fixture proposals", "created", res.Created, "duplicates", res.Duplicates)
	return res, nil
}
