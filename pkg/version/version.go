// Package version resolves a requested spec version against the versions a
// spec store actually holds.
//
// Versions are parsed leniently: only the leading major.minor.patch digits
// matter, so "1.2.3-rc1" and "1.2.3+build" both parse as 1.2.3. Anything that
// does not start with three dot-separated numbers is treated as non-semver and
// can only be selected by exact string match.
package version

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

var leadingSemver = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)`)

// Parse extracts the leading major.minor.patch triple from s.
func Parse(s string) (*semver.Version, bool) {
	m := leadingSemver.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	major, err1 := strconv.ParseUint(m[1], 10, 64)
	minor, err2 := strconv.ParseUint(m[2], 10, 64)
	patch, err3 := strconv.ParseUint(m[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, false
	}
	return semver.New(major, minor, patch, "", ""), true
}

type parsed struct {
	candidate contract.VersionCandidate
	v         *semver.Version
}

func parseAll(available []contract.VersionCandidate) []parsed {
	out := make([]parsed, 0, len(available))
	for _, c := range available {
		if v, ok := Parse(c.Version); ok {
			out = append(out, parsed{candidate: c, v: v})
		}
	}
	return out
}

// FindBestSemverMatch returns the candidate that best satisfies requested.
//
// An exact string match always wins. Otherwise, among candidates sharing the
// requested major version, one with the same minor is preferred (same patch
// first, then the highest patch); failing that the highest minor is chosen.
// When no candidate shares the major version the overall latest is returned.
// A requested string that does not parse as semver only matches exactly.
func FindBestSemverMatch(requested string, available []contract.VersionCandidate) *contract.VersionCandidate {
	if len(available) == 0 {
		return nil
	}
	for i := range available {
		if available[i].Version == requested {
			c := available[i]
			return &c
		}
	}

	want, ok := Parse(requested)
	if !ok {
		return nil
	}

	all := parseAll(available)
	var compatible []parsed
	for _, p := range all {
		if p.v.Major() == want.Major() {
			compatible = append(compatible, p)
		}
	}

	if len(compatible) == 0 {
		if len(all) == 0 {
			return nil
		}
		return latestOf(all)
	}

	sort.SliceStable(compatible, func(i, j int) bool {
		a, b := compatible[i].v, compatible[j].v
		aMinor, bMinor := a.Minor() == want.Minor(), b.Minor() == want.Minor()
		if aMinor != bMinor {
			return aMinor
		}
		if aMinor {
			aPatch, bPatch := a.Patch() == want.Patch(), b.Patch() == want.Patch()
			if aPatch != bPatch {
				return aPatch
			}
			return a.Patch() > b.Patch()
		}
		if a.Minor() != b.Minor() {
			return a.Minor() > b.Minor()
		}
		return a.Patch() > b.Patch()
	})
	c := compatible[0].candidate
	return &c
}

// GetLatestVersion returns the highest semver candidate. When none parse, the
// first candidate is returned. Nil is returned for an empty list.
func GetLatestVersion(available []contract.VersionCandidate) *contract.VersionCandidate {
	if len(available) == 0 {
		return nil
	}
	all := parseAll(available)
	if len(all) == 0 {
		c := available[0]
		return &c
	}
	return latestOf(all)
}

func latestOf(all []parsed) *contract.VersionCandidate {
	best := all[0]
	for _, p := range all[1:] {
		if p.v.GreaterThan(best.v) {
			best = p
		}
	}
	c := best.candidate
	return &c
}

// Sort orders version strings newest first. Semver strings come before
// non-semver ones, which keep their relative order.
func Sort(versions []string) []string {
	out := append([]string(nil), versions...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := Parse(out[i])
		b, bok := Parse(out[j])
		switch {
		case aok && bok:
			return a.GreaterThan(b)
		case aok:
			return true
		default:
			return false
		}
	})
	return out
}

// Candidates wraps plain version strings as candidates, using the version as
// the ID.
func Candidates(versions ...string) []contract.VersionCandidate {
	out := make([]contract.VersionCandidate, len(versions))
	for i, v := range versions {
		out[i] = contract.VersionCandidate{ID: v, Version: v}
	}
	return out
}
