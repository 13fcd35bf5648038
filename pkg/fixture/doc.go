// Package fixture orders, hashes and deduplicates fixtures, the approved
// example interactions a mock serves before falling back to spec-derived
// responses.
//
// Prioritize gives the order the mock engine consumes: approved before
// pending before rejected, lower priority first, newest first on ties.
// Hash is the content identity used to drop duplicate proposals both in a
// local Collector and by the broker.
package fixture
