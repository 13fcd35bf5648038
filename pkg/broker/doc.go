// Package broker is the HTTP client for the contract broker.
//
// The broker stores specs, approved fixtures, recorded interactions and
// verification tasks. This package only speaks its JSON API:
//
//	GET  /api/v1/specs/{service}              spec by version, environment, branch
//	GET  /api/v1/specs/{service}/deployed     spec deployed in an environment
//	GET  /api/v1/fixtures                     fixtures by service, version, status
//	POST /api/v1/fixtures/batch               fixture proposals
//	POST /api/v1/interactions/batch           recorded interactions
//	GET  /api/v1/verification-tasks           open tasks for a provider
//	POST /api/v1/verification-results         results for one task
//
// A 404 on a spec lookup is returned as *SpecNotFoundError carrying the
// versions the broker does have. Spec responses are held in a per-client
// TTL cache so repeated mocks in one test binary fetch each spec once.
package broker
