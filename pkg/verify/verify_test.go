package verify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/verify"
)

type fakeSource struct {
	mu         sync.Mutex
	tasks      []contract.VerificationTask
	fetchErr   error
	failSubmit map[string]bool
	submitted  []*contract.VerificationSubmission
}

func (f *fakeSource) FetchVerificationTasks(_ context.Context, provider, _ string) ([]contract.VerificationTask, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.tasks, nil
}

func (f *fakeSource) SubmitVerificationResults(_ context.Context, sub *contract.VerificationSubmission) (*broker.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit[sub.TaskID] {
		return nil, errors.New("broker unavailable")
	}
	f.submitted = append(f.submitted, sub)
	return &broker.SubmitResult{ID: "vr-" + sub.TaskID, Status: "received"}, nil
}

func interaction(id, op, path string, status int, body any) contract.ClientInteraction {
	return contract.ClientInteraction{
		ID:        id,
		Operation: op,
		Request:   contract.Request{Method: "GET", Path: path},
		Response: contract.Response{
			Status:  status,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    body,
		},
	}
}

func provider(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newVerifier(t *testing.T, src verify.TaskSource, opts verify.Options) *verify.Verifier {
	t.Helper()
	if opts.Provider == "" {
		opts.Provider = "users"
	}
	if opts.ProviderVersion == "" {
		opts.ProviderVersion = "2.0.0"
	}
	v, err := verify.New(src, opts)
	require.NoError(t, err)
	return v
}

func TestVerify_MissingFieldFailsOnlyThatInteraction(t *testing.T) {
	srv := provider(t, map[string]any{
		"/users/1": map[string]any{"id": 1, "name": "Ada", "email": "ada@example.com"},
		"/users/2": map[string]any{"id": 2, "name": "Grace"},
	})
	src := &fakeSource{tasks: []contract.VerificationTask{{
		ID:              "task-1",
		Provider:        "users",
		Consumer:        "web",
		ConsumerVersion: "1.4.0",
		ConsumerGitSHA:  "abc123",
		SpecType:        contract.SpecTypeOpenAPI,
		Interactions: []contract.ClientInteraction{
			interaction("i1", "getUser", "/users/1", 200, map[string]any{"id": 1, "name": "Ada"}),
			interaction("i2", "getUser", "/users/2", 200, map[string]any{"id": 2, "name": "Grace", "email": "grace@example.com"}),
		},
	}}}

	report, err := newVerifier(t, src, verify.Options{BaseURL: srv.URL, ProviderGitSHA: "def456"}).Verify(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	require.NotNil(t, report.Results[1].ErrorDetails)
	assert.Equal(t, contract.ErrorStructureMismatch, report.Results[1].ErrorDetails.Type)
	assert.Equal(t, "email", report.Results[1].ErrorDetails.Field)
	assert.Equal(t, "i2", report.Results[1].InteractionID)
	assert.NotNil(t, report.Results[1].ActualResponse)

	assert.Equal(t, []string{"task-1"}, report.TaskIDs)
	assert.Equal(t, "2.0.0", report.ProviderVersion)
	assert.Equal(t, verify.StateSubmitted, report.Tasks[0].State)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Failed())

	require.Len(t, src.submitted, 1)
	sub := src.submitted[0]
	assert.Equal(t, "task-1", sub.TaskID)
	assert.Equal(t, "def456", sub.ProviderGitSHA)
	assert.Equal(t, "abc123", sub.ConsumerGitSHA)
	assert.Equal(t, contract.SpecTypeOpenAPI, sub.SpecType)
	assert.Len(t, sub.Results, 2)
}

func TestVerify_HooksRunStrictlyInOrder(t *testing.T) {
	srv := provider(t, map[string]any{
		"/a": map[string]any{"ok": true},
		"/b": map[string]any{"ok": true},
	})
	src := &fakeSource{tasks: []contract.VerificationTask{{
		ID: "task-1",
		Interactions: []contract.ClientInteraction{
			interaction("i1", "opA", "/a", 200, map[string]any{"ok": true}),
			interaction("i2", "opB", "/b", 200, map[string]any{"ok": true}),
		},
	}}}

	var events []string
	record := func(name string) verify.Hook {
		return func(_ context.Context, in contract.ClientInteraction) error {
			events = append(events, name+":"+in.ID)
			return nil
		}
	}
	v := newVerifier(t, src, verify.Options{
		BaseURL: srv.URL,
		StateHandlers: map[string]verify.Hook{
			"opA": record("state"),
			"opB": record("state"),
		},
		Cleanup: record("cleanup"),
	})

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Equal(t, []string{"state:i1", "cleanup:i1", "state:i2", "cleanup:i2"}, events)
}

func TestVerify_ReplayErrorsDoNotAbortTask(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	src := &fakeSource{tasks: []contract.VerificationTask{{
		ID: "task-1",
		Interactions: []contract.ClientInteraction{
			interaction("i1", "op", "/a", 200, nil),
			interaction("i2", "op", "/b", 200, nil),
		},
	}}}

	var cleanups int
	v := newVerifier(t, src, verify.Options{
		BaseURL: deadURL,
		Cleanup: func(context.Context, contract.ClientInteraction) error {
			cleanups++
			return nil
		},
	})
	report, err := v.Verify(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
		assert.Nil(t, res.ErrorDetails, "transport failures carry no comparison details")
	}
	assert.Equal(t, 2, cleanups)
	assert.Equal(t, verify.StateSubmitted, report.Tasks[0].State)
}

func TestVerify_StateHandlerFailureAndPanic(t *testing.T) {
	srv := provider(t, map[string]any{"/a": map[string]any{"ok": true}})
	src := &fakeSource{tasks: []contract.VerificationTask{{
		ID: "task-1",
		Interactions: []contract.ClientInteraction{
			interaction("i1", "boom", "/a", 200, map[string]any{"ok": true}),
			interaction("i2", "fail", "/a", 200, map[string]any{"ok": true}),
			interaction("i3", "fine", "/a", 200, map[string]any{"ok": true}),
		},
	}}}

	v := newVerifier(t, src, verify.Options{
		BaseURL: srv.URL,
		StateHandlers: map[string]verify.Hook{
			"boom": func(context.Context, contract.ClientInteraction) error { panic("db down") },
			"fail": func(context.Context, contract.ClientInteraction) error { return errors.New("no seed data") },
		},
	})
	report, err := v.Verify(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Contains(t, report.Results[0].Error, "panic: db down")
	assert.Contains(t, report.Results[1].Error, "no seed data")
	assert.True(t, report.Results[2].Success)
}

func TestVerify_ReplayTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	src := &fakeSource{tasks: []contract.VerificationTask{{
		ID:           "task-1",
		Interactions: []contract.ClientInteraction{interaction("i1", "op", "/slow", 200, nil)},
	}}}
	v := newVerifier(t, src, verify.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "deadline exceeded")
	assert.Nil(t, report.Results[0].ErrorDetails)
}

func TestVerify_SubmissionIsPerTask(t *testing.T) {
	srv := provider(t, map[string]any{"/a": map[string]any{"ok": true}})
	src := &fakeSource{
		tasks: []contract.VerificationTask{
			{ID: "task-1", Interactions: []contract.ClientInteraction{interaction("i1", "op", "/a", 200, nil)}},
			{ID: "task-2", Interactions: []contract.ClientInteraction{interaction("i2", "op", "/a", 200, nil)}},
			{ID: "task-3", Interactions: []contract.ClientInteraction{interaction("i3", "op", "/a", 200, nil)}},
		},
		failSubmit: map[string]bool{"task-2": true},
	}

	report, err := newVerifier(t, src, verify.Options{BaseURL: srv.URL}).Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	require.Len(t, report.Tasks, 3)
	assert.Equal(t, verify.StateSubmitted, report.Tasks[0].State)
	assert.Equal(t, verify.StateProcessing, report.Tasks[1].State)
	assert.Equal(t, verify.StateSubmitted, report.Tasks[2].State)
	assert.Len(t, src.submitted, 2)
	assert.False(t, report.Passed())
}

func TestVerify_ReplaysRecordedRequest(t *testing.T) {
	type captured struct {
		method, path, dryRun, tenant, contentType string
		body                                      map[string]any
	}
	seen := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{
			method:      r.Method,
			path:        r.URL.Path,
			dryRun:      r.URL.Query().Get("dryRun"),
			tenant:      r.Header.Get("X-Tenant"),
			contentType: r.Header.Get("Content-Type"),
		}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		seen <- c
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u-99"}`))
	}))
	defer srv.Close()

	in := contract.ClientInteraction{
		ID:        "i1",
		Operation: "createUser",
		Request: contract.Request{
			Method:  "POST",
			Path:    "/users",
			Headers: map[string]string{"X-Tenant": "acme", "Host": "mock.local"},
			Query:   map[string]string{"dryRun": "false"},
			Body:    map[string]any{"name": "Ada"},
		},
		Response: contract.Response{Status: 201, Body: map[string]any{"id": "u-1"}},
	}
	src := &fakeSource{tasks: []contract.VerificationTask{{ID: "t", Interactions: []contract.ClientInteraction{in}}}}

	report, err := newVerifier(t, src, verify.Options{BaseURL: srv.URL + "/"}).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Results[0].Success, report.Results[0].Error)

	got := <-seen
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/users", got.path)
	assert.Equal(t, "false", got.dryRun)
	assert.Equal(t, "acme", got.tenant)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "Ada", got.body["name"])
}

func TestVerify_SkippedWithoutIdentity(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("must not be called")}
	v, err := verify.New(src, verify.Options{BaseURL: "http://localhost:1", Provider: "users"})
	require.NoError(t, err)

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, report.Results)
}

func TestVerify_FetchError(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("broker down")}
	_, err := newVerifier(t, src, verify.Options{BaseURL: "http://localhost:1"}).Verify(context.Background())
	assert.EqualError(t, err, "broker down")
}

func TestNew_Validation(t *testing.T) {
	_, err := verify.New(nil, verify.Options{BaseURL: "http://x"})
	assert.Error(t, err)
	_, err = verify.New(&fakeSource{}, verify.Options{})
	assert.Error(t, err)
}
