package fixture

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/internal/retry"
	"github.com/getmockd/mockd-contract/pkg/contract"
)

func fx(id string, status contract.FixtureStatus, priority int, created time.Time) contract.Fixture {
	return contract.Fixture{
		ID:        id,
		Operation: "getX",
		Status:    status,
		Priority:  priority,
		CreatedAt: created,
		Data:      contract.FixtureData{Response: &contract.Response{Status: 200, Body: map[string]any{"id": id}}},
	}
}

func ids(fs []contract.Fixture) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}
	return out
}

func TestPrioritize(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []contract.Fixture{
		fx("rejected", contract.FixtureStatusRejected, 0, t0),
		fx("pending", contract.FixtureStatusPending, 0, t0),
		fx("approved-p2", contract.FixtureStatusApproved, 2, t0),
		fx("approved-p1-old", contract.FixtureStatusApproved, 1, t0),
		fx("approved-p1-new", contract.FixtureStatusApproved, 1, t0.Add(time.Hour)),
	}

	got := Prioritize(in)
	assert.Equal(t, []string{"approved-p1-new", "approved-p1-old", "approved-p2", "pending", "rejected"}, ids(got))
	assert.Equal(t, "rejected", in[0].ID, "input is not reordered")
}

func TestPrioritize_Stable(t *testing.T) {
	t0 := time.Now()
	in := []contract.Fixture{
		fx("a", contract.FixtureStatusApproved, 0, t0),
		fx("b", contract.FixtureStatusApproved, 0, t0),
		fx("c", contract.FixtureStatusApproved, 0, t0),
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Prioritize(in)))
}

func TestSelect(t *testing.T) {
	t0 := time.Now()
	in := []contract.Fixture{
		fx("rejected", contract.FixtureStatusRejected, 0, t0),
		fx("pending", contract.FixtureStatusPending, 0, t0),
	}
	got, ok := Select(in, "getX")
	require.True(t, ok)
	assert.Equal(t, "pending", got.ID)

	_, ok = Select(in, "other")
	assert.False(t, ok)

	_, ok = Select(in[:1], "getX")
	assert.False(t, ok, "rejected fixtures are never served")
}

func TestIndex(t *testing.T) {
	t0 := time.Now()
	in := []contract.Fixture{
		fx("p", contract.FixtureStatusPending, 0, t0),
		fx("a", contract.FixtureStatusApproved, 5, t0),
		fx("r", contract.FixtureStatusRejected, 0, t0),
	}
	idx := NewIndex(in)
	assert.Equal(t, 2, idx.Len())
	first, ok := idx.First("getX")
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)
}

func TestHash(t *testing.T) {
	data := contract.FixtureData{
		Request:  &contract.Request{Method: "get", Path: "/x", Headers: map[string]string{"Accept": "application/json"}},
		Response: &contract.Response{Status: 200, Body: map[string]any{"b": 2, "a": 1}},
	}
	h1 := Hash("getX", data)
	h2 := Hash("getX", data)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	same := contract.FixtureData{
		Request:  &contract.Request{Method: "GET", Path: "/x", Headers: map[string]string{"accept": "application/json"}},
		Response: &contract.Response{Status: 200, Body: map[string]any{"a": 1, "b": 2}},
	}
	assert.Equal(t, h1, Hash("getX", same), "header case and method case are canonicalized")

	assert.NotEqual(t, h1, Hash("getY", data))
	changed := same
	changed.Response = &contract.Response{Status: 201, Body: map[string]any{"a": 1, "b": 2}}
	assert.NotEqual(t, h1, Hash("getX", changed))
}

func TestHashInteraction(t *testing.T) {
	req := &contract.Request{Method: "GET", Path: "/x"}
	resp := &contract.Response{Status: 200}
	a := HashInteraction("svc", "web", "1.0.0", "getX", req, resp)
	assert.Equal(t, a, HashInteraction("svc", "web", "1.0.0", "getX", req, resp))
	assert.NotEqual(t, a, HashInteraction("svc", "web", "1.0.1", "getX", req, resp))
}

func TestDedup(t *testing.T) {
	t0 := time.Now()
	a := fx("a", contract.FixtureStatusApproved, 0, t0)
	b := a
	b.ID = "b"
	c := fx("c", contract.FixtureStatusApproved, 0, t0)
	assert.Equal(t, []string{"a", "c"}, ids(Dedup([]contract.Fixture{a, b, c})))
}

type fakeUploader struct {
	batches [][]contract.Fixture
	err     error
}

func (f *fakeUploader) UploadFixtures(_ context.Context, fixtures []contract.Fixture) (*contract.FixtureUploadResult, error) {
	f.batches = append(f.batches, fixtures)
	if f.err != nil {
		return nil, f.err
	}
	return &contract.FixtureUploadResult{Created: len(fixtures)}, nil
}

func TestCollector(t *testing.T) {
	up := &fakeUploader{}
	c := NewCollector(up, CollectorOptions{Service: "orders", ServiceVersion: "1.0.0", Generator: "go-test", RunID: "run-1"})

	existing := fx("existing", contract.FixtureStatusApproved, 0, time.Now())
	c.Seed([]contract.Fixture{existing})

	assert.False(t, c.Propose("getX", existing.Data.Request, existing.Data.Response), "seeded fixture is not proposed")

	req := &contract.Request{Method: "GET", Path: "/x/1"}
	resp := &contract.Response{Status: 200, Body: map[string]any{"id": "1"}}
	assert.True(t, c.Propose("getX", req, resp))
	assert.False(t, c.Propose("getX", req, resp))
	assert.Equal(t, 1, c.Len())

	p := c.Proposals()[0]
	assert.Equal(t, contract.FixtureStatusPending, p.Status)
	assert.Equal(t, contract.FixtureSourceConsumer, p.Source)
	assert.Equal(t, contract.ProvenanceTestOutput, p.CreatedFrom.Type)
	assert.Equal(t, "run-1", p.CreatedFrom.RunID)
	assert.NotEmpty(t, p.ID)

	res, err := c.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, c.Len())
	require.Len(t, up.batches, 1)

	res, err = c.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, up.batches, 1, "empty flush does not call the broker")
}

func TestCollector_FlushFailureClears(t *testing.T) {
	up := &fakeUploader{err: errors.New("broker down")}
	c := NewCollector(up, CollectorOptions{
		Retry: retry.Policy{MaxAttempts: 2, InitialInterval: time.Millisecond},
	})
	c.Propose("getX", nil, &contract.Response{Status: 200})

	_, err := c.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Len(t, up.batches, 2, "upload is retried")
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"orders/list.yaml": {Data: []byte(`
- operation: listOrders
  priority: 1
  data:
    response:
      status: 200
      body:
        - id: 1
- operation: getOrder
  status: pending
  data:
    response:
      body: {id: 7}
`)},
		"orders/wrapped.yml": {Data: []byte(`
fixtures:
  - operation: deleteOrder
    data:
      response: {status: 204}
`)},
		"users/single.json": {Data: []byte(`{"operation":"getUser","source":"provider","data":{"response":{"status":200,"body":{"id":"u1"}}}}`)},
		"README.md":         {Data: []byte("ignored")},
	}

	got, err := LoadFS(fsys, "")
	require.NoError(t, err)
	require.Len(t, got, 4)

	byOp := map[string]contract.Fixture{}
	for _, f := range got {
		byOp[f.Operation] = f
	}
	assert.Equal(t, contract.FixtureStatusApproved, byOp["listOrders"].Status)
	assert.Equal(t, contract.FixtureSourceManual, byOp["listOrders"].Source)
	assert.Equal(t, contract.FixtureStatusPending, byOp["getOrder"].Status)
	assert.Equal(t, 200, byOp["getOrder"].Data.Response.Status, "status defaults to 200")
	assert.Equal(t, 204, byOp["deleteOrder"].Data.Response.Status)
	assert.Equal(t, contract.FixtureSourceProvider, byOp["getUser"].Source)
	assert.Equal(t, contract.ProvenanceManual, byOp["getUser"].CreatedFrom.Type)
}

func TestParse_MissingOperation(t *testing.T) {
	_, err := Parse([]byte(`data: {response: {status: 200}}`))
	assert.ErrorIs(t, err, ErrNoOperation)
}
