package fixture

import (
	"sort"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

func statusRank(s contract.FixtureStatus) int {
	switch s {
	case contract.FixtureStatusApproved:
		return 0
	case contract.FixtureStatusPending:
		return 1
	case contract.FixtureStatusRejected:
		return 2
	default:
		return 3
	}
}

// Less reports whether a should be served before b.
func Less(a, b *contract.Fixture) bool {
	if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
		return ra < rb
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Prioritize returns a stably sorted copy of fixtures in serving order.
func Prioritize(fixtures []contract.Fixture) []contract.Fixture {
	out := append([]contract.Fixture(nil), fixtures...)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(&out[i], &out[j])
	})
	return out
}

// ForOperation returns the prioritized fixtures recorded for operation.
func ForOperation(fixtures []contract.Fixture, operation string) []contract.Fixture {
	var out []contract.Fixture
	for _, f := range fixtures {
		if f.Operation == operation {
			out = append(out, f)
		}
	}
	return Prioritize(out)
}

// Select returns the fixture to serve for operation: the first non-rejected
// fixture in serving order that carries a response.
func Select(fixtures []contract.Fixture, operation string) (*contract.Fixture, bool) {
	for _, f := range ForOperation(fixtures, operation) {
		if f.Status == contract.FixtureStatusRejected || f.Data.Response == nil {
			continue
		}
		return &f, true
	}
	return nil, false
}

// Index groups prioritized fixtures by operation for repeated lookups.
type Index map[string][]contract.Fixture

// NewIndex builds an Index from fixtures, skipping rejected ones.
func NewIndex(fixtures []contract.Fixture) Index {
	idx := make(Index)
	for _, f := range Prioritize(fixtures) {
		if f.Status == contract.FixtureStatusRejected || f.Data.Response == nil {
			continue
		}
		idx[f.Operation] = append(idx[f.Operation], f)
	}
	return idx
}

// First returns the highest-priority fixture for operation.
func (idx Index) First(operation string) (*contract.Fixture, bool) {
	list := idx[operation]
	if len(list) == 0 {
		return nil, false
	}
	return &list[0], true
}

// Len returns the number of indexed fixtures.
func (idx Index) Len() int {
	n := 0
	for _, list := range idx {
		n += len(list)
	}
	return n
}
