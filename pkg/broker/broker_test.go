package broker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/contract"
)

const brokerURL = "http://broker.test"

func replay(t *testing.T, name string, opts ...broker.Option) *broker.Client {
	t.Helper()

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", name), recorder.ModeReplaying, nil)
	require.NoError(t, err)
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})
	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop recorder: %v", err)
		}
	})

	opts = append([]broker.Option{broker.WithHTTPClient(&http.Client{Transport: r})}, opts...)
	return broker.New(brokerURL, opts...)
}

func TestFetchSpec(t *testing.T) {
	c := replay(t, "spec_fetch", broker.WithToken("test-token"))

	spec, err := c.FetchSpec(context.Background(), broker.SpecQuery{
		Service:     "orders",
		Version:     "1.2.0",
		Environment: "staging",
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", spec.Service)
	assert.Equal(t, "1.2.0", spec.Version)
	assert.Equal(t, contract.SpecTypeOpenAPI, spec.Type)
	assert.Contains(t, spec.Content, "openapi: 3.0.3")
}

func TestFetchSpec_NotFoundCarriesAvailableVersions(t *testing.T) {
	c := replay(t, "spec_fetch", broker.WithToken("test-token"))

	_, err := c.FetchSpec(context.Background(), broker.SpecQuery{Service: "orders", Version: "9.9.9"})
	require.Error(t, err)

	var nf *broker.SpecNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "orders", nf.Service)
	assert.Equal(t, "9.9.9", nf.Version)
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.2.0"}, nf.AvailableVersions)
	assert.Equal(t, "Publish orders@9.9.9 or pin one of the available versions.", nf.Suggestion)
	assert.Contains(t, err.Error(), "1.0.0, 1.1.0, 1.2.0")
	assert.False(t, errors.Is(err, broker.ErrVersionUnresolvable))
}

func TestFetchSpecForDeployment_LatestUnresolvable(t *testing.T) {
	c := replay(t, "spec_fetch")

	_, err := c.FetchSpecForDeployment(context.Background(), broker.SpecQuery{
		Service:     "billing",
		Environment: "production",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrVersionUnresolvable))

	var nf *broker.SpecNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, broker.LatestVersion, nf.Version)
	assert.Equal(t, []string{"2.0.0", "2.1.0"}, nf.AvailableVersions)
	assert.Contains(t, err.Error(), "Record a deployment")
}

func TestFetchSpecForDeployment_NoVersionsUsesDefaultSuggestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"No deployment recorded","availableVersions":[]}`))
	}))
	defer srv.Close()

	c := broker.New(srv.URL)
	_, err := c.FetchSpecForDeployment(context.Background(), broker.SpecQuery{
		Service:     "billing",
		Environment: "production",
	})
	require.Error(t, err)

	var nf *broker.SpecNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, nf.AvailableVersions)
	assert.Empty(t, nf.Suggestion)
	assert.Equal(t, "No deployment recorded", nf.Message)
	assert.Equal(t,
		"spec not found for billing@latest in production: No deployment recorded (available versions: none). "+
			"Upload a spec for billing or record a deployment to production.",
		err.Error())
}

func TestSpecNotFoundError_Message(t *testing.T) {
	err := &broker.SpecNotFoundError{Service: "orders", Version: "2.0.0", AvailableVersions: []string{"1.0.0"}}
	assert.Equal(t,
		"spec not found for orders@2.0.0 (available versions: 1.0.0). Publish orders@2.0.0 or pin one of the available versions.",
		err.Error())

	err = &broker.SpecNotFoundError{Service: "orders", Version: "2.0.0", Suggestion: "Ask the provider team."}
	assert.Equal(t, "spec not found for orders@2.0.0 (available versions: none). Ask the provider team.", err.Error())
}

func TestFixturesAndUploads(t *testing.T) {
	c := replay(t, "fixtures_roundtrip")
	ctx := context.Background()

	fixtures, err := c.FetchFixtures(ctx, broker.FixtureQuery{Service: "orders", Version: "1.2.0"})
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	assert.Equal(t, "getOrder", fixtures[0].Operation)
	assert.Equal(t, contract.FixtureStatusApproved, fixtures[0].Status)
	assert.Equal(t, 200, fixtures[0].Data.Response.Status)

	fres, err := c.UploadFixtures(ctx, fixtures)
	require.NoError(t, err)
	assert.Equal(t, 1, fres.Created)
	assert.Equal(t, 1, fres.Duplicates)

	ires, err := c.UploadInteractions(ctx, []contract.ClientInteraction{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, ires.Recorded)
}

func TestUploads_EmptyBatchSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := broker.New(srv.URL)
	_, err := c.UploadFixtures(context.Background(), nil)
	require.NoError(t, err)
	_, err = c.UploadInteractions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, hits.Load())
}

func TestVerificationTasks(t *testing.T) {
	c := replay(t, "verification_tasks")
	ctx := context.Background()

	tasks, err := c.FetchVerificationTasks(ctx, "orders", "staging")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_1", tasks[0].ID)
	require.Len(t, tasks[0].Interactions, 1)
	assert.Equal(t, "/orders/o-1", tasks[0].Interactions[0].Request.Path)
	assert.Equal(t, time.Millisecond, tasks[0].Interactions[0].Duration)

	res, err := c.SubmitVerificationResults(ctx, &contract.VerificationSubmission{
		TaskID:          "task_1",
		Provider:        "orders",
		ProviderVersion: "1.2.0",
		Consumer:        "web",
		ConsumerVersion: "3.4.0",
		Results:         []contract.VerificationResult{{InteractionID: "int_1", Success: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "passed", res.Status)
}

func TestSubmitVerificationResults_RequiresTaskID(t *testing.T) {
	c := broker.New(brokerURL)
	_, err := c.SubmitVerificationResults(context.Background(), &contract.VerificationSubmission{})
	require.Error(t, err)
}

func TestSpecCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/v1/specs/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(contract.Spec{
			Service: "orders",
			Version: r.URL.Query().Get("version"),
			Type:    contract.SpecTypeOpenAPI,
			Content: "openapi: 3.0.3",
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	q := broker.SpecQuery{Service: "orders", Version: "1.0.0"}

	c := broker.New(srv.URL)
	_, err := c.FetchSpec(ctx, q)
	require.NoError(t, err)
	_, err = c.FetchSpec(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	c.PurgeCache()
	_, err = c.FetchSpec(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// Each client owns its cache.
	other := broker.New(srv.URL)
	_, err = other.FetchSpec(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())

	uncached := broker.New(srv.URL, broker.WithCacheTTL(0))
	_, err = uncached.FetchSpec(ctx, q)
	require.NoError(t, err)
	_, err = uncached.FetchSpec(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(5), hits.Load())
}

func TestAPIError_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable","message":"broker is restarting"}`))
	}))
	defer srv.Close()

	_, err := broker.New(srv.URL).UploadInteractions(context.Background(), []contract.ClientInteraction{{ID: "a"}})
	require.Error(t, err)

	var apiErr *broker.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "broker is restarting", apiErr.Message)
	assert.True(t, apiErr.Retryable())

	assert.False(t, (&broker.APIError{StatusCode: http.StatusBadRequest}).Retryable())
	assert.True(t, (&broker.APIError{StatusCode: http.StatusTooManyRequests}).Retryable())
}

func TestBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"tasks":[]}`))
	}))
	defer srv.Close()

	tasks, err := broker.New(srv.URL, broker.WithToken("s3cret")).FetchVerificationTasks(context.Background(), "orders", "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
