// Package metrics exposes Prometheus metrics for the contract mock and the
// verification runner.
//
// Each Metrics value owns its own prometheus.Registry so that several mock
// servers in one test binary do not collide. All recording methods are safe
// on a nil *Metrics, which lets components treat metrics as optional.
//
// # Metrics
//
//   - mockd_contract_mock_requests_total: requests served (labels: operation, source, status)
//   - mockd_contract_mock_request_duration_seconds: handling latency (labels: operation)
//   - mockd_contract_interactions_recorded_total: interactions queued for upload
//   - mockd_contract_interactions_duplicate_total: interactions dropped by hash dedup
//   - mockd_contract_flush_failures_total: failed batch uploads (labels: kind)
//   - mockd_contract_verification_results_total: replay outcomes (labels: outcome)
//
// # Label Conventions
//
//   - operation: operation ID, or "unmatched" when no operation resolved
//   - source: fixture, example, error
//   - kind: interactions, fixtures
//   - outcome: passed, failed
//
// # Usage
//
//	m := metrics.New()
//	m.ObserveRequest("getOrder", metrics.SourceFixture, 200, elapsed)
//	http.Handle("/metrics", m.Handler())
package metrics
