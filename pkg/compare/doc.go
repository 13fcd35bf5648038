// Package compare checks a provider's actual response against the response a
// consumer recorded.
//
// The comparison is structural: status codes must match, every field the
// recorded body has must exist in the actual body with the same JSON type,
// and extra fields are allowed. For successful statuses a content sanity pass
// also rejects an empty array where a populated one was recorded and an id
// whose type changed. The first problem found is reported.
//
// Arrays are sampled by their first element unless AllElements is selected.
// IgnorePaths removes JSONPath-selected values from both bodies before
// comparison, for fields such as timestamps that legitimately differ.
package compare
