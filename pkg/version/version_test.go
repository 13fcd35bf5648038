package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBestSemverMatch(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		available []string
		want      string
	}{
		{"exact match", "1.2.3", []string{"1.2.3", "1.2.4", "2.0.0"}, "1.2.3"},
		{"higher minor within major", "1.5.0", []string{"1.2.0", "1.6.0", "2.0.0"}, "1.6.0"},
		{"no compatible major falls back to latest", "3.0.0", []string{"1.0.0", "1.9.9"}, "1.9.9"},
		{"same minor preferred over higher minor", "1.2.0", []string{"1.3.0", "1.2.5", "1.2.1"}, "1.2.5"},
		{"same minor and patch after exact miss", "1.2.3-rc1", []string{"1.2.9", "1.2.3"}, "1.2.3"},
		{"exact non-semver", "main", []string{"1.0.0", "main"}, "main"},
		{"prerelease suffix ignored", "2.0.0", []string{"2.1.0-beta", "1.0.0"}, "2.1.0-beta"},
		{"unparsable candidates skipped", "1.0.0", []string{"garbage", "1.4.2"}, "1.4.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBestSemverMatch(tt.requested, Candidates(tt.available...))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Version)
		})
	}
}

func TestFindBestSemverMatch_NoMatch(t *testing.T) {
	assert.Nil(t, FindBestSemverMatch("1.0.0", nil))
	assert.Nil(t, FindBestSemverMatch("latest", Candidates("1.0.0", "2.0.0")), "non-semver request only matches exactly")
	assert.Nil(t, FindBestSemverMatch("1.0.0", Candidates("alpha", "beta")))
}

func TestFindBestSemverMatch_ExactAlwaysWins(t *testing.T) {
	available := Candidates("9.9.9", "1.0.0", "1.0.0-special")
	got := FindBestSemverMatch("1.0.0-special", available)
	require.NotNil(t, got)
	assert.Equal(t, "1.0.0-special", got.Version)
}

func TestGetLatestVersion(t *testing.T) {
	got := GetLatestVersion(Candidates("1.2.0", "1.10.0", "1.9.0"))
	require.NotNil(t, got)
	assert.Equal(t, "1.10.0", got.Version)

	got = GetLatestVersion(Candidates("dev", "main"))
	require.NotNil(t, got)
	assert.Equal(t, "dev", got.Version, "non-semver keeps insertion order")

	assert.Nil(t, GetLatestVersion(nil))
}

func TestParse(t *testing.T) {
	v, ok := Parse("v1.2.3-rc.1")
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.Major())
	assert.Equal(t, uint64(2), v.Minor())
	assert.Equal(t, uint64(3), v.Patch())

	_, ok = Parse("1.2")
	assert.False(t, ok)
}

func TestSort(t *testing.T) {
	got := Sort([]string{"1.0.0", "dev", "2.1.0", "1.10.0", "main"})
	assert.Equal(t, []string{"2.1.0", "1.10.0", "1.0.0", "dev", "main"}, got)
}
