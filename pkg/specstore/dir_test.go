package specstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/specstore"
)

func TestDir_ServicesAndVersions(t *testing.T) {
	d := specstore.NewDir("testdata/specs")

	services, err := d.Services()
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog", "pets"}, services)

	versions, err := d.Versions("pets")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0-rc1", "1.2.0", "1.0.0"}, versions)
}

func TestDir_FetchExact(t *testing.T) {
	d := specstore.NewDir("testdata/specs")

	s, err := d.FetchSpec(context.Background(), broker.SpecQuery{Service: "pets", Version: "1.2.0"})
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", s.Version)
	assert.Equal(t, contract.SpecTypeOpenAPI, s.Type)
	assert.Contains(t, s.Content, "version: 1.2.0")

	s, err = d.FetchSpec(context.Background(), broker.SpecQuery{Service: "catalog", Version: "3.1.0"})
	require.NoError(t, err)
	assert.Equal(t, contract.SpecTypeGraphQL, s.Type)
}

func TestDir_FetchLatest(t *testing.T) {
	d := specstore.NewDir("testdata/specs")

	s, err := d.FetchSpec(context.Background(), broker.SpecQuery{Service: "pets", Version: broker.LatestVersion})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-rc1", s.Version)

	s, err = d.FetchSpec(context.Background(), broker.SpecQuery{Service: "pets"})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-rc1", s.Version)
}

func TestDir_NotFound(t *testing.T) {
	d := specstore.NewDir("testdata/specs")

	_, err := d.FetchSpec(context.Background(), broker.SpecQuery{Service: "pets", Version: "1.1.0"})
	var nf *broker.SpecNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"2.0.0-rc1", "1.2.0", "1.0.0"}, nf.AvailableVersions)
	assert.Equal(t, "Closest available version is 1.2.0.", nf.Suggestion)

	_, err = d.FetchSpec(context.Background(), broker.SpecQuery{Service: "billing", Version: broker.LatestVersion})
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, nf.AvailableVersions)
	assert.True(t, errors.Is(err, broker.ErrVersionUnresolvable))
}

func TestDir_RejectsPathTraversal(t *testing.T) {
	d := specstore.NewDir("testdata/specs")
	_, err := d.FetchSpec(context.Background(), broker.SpecQuery{Service: "../specs", Version: "1.0.0"})
	assert.Error(t, err)
}
