// Package mock serves deterministic responses for an API description.
//
// An Engine is built from a Document (OpenAPI, GraphQL or AsyncAPI) and a set
// of fixtures. For every request it resolves the target operation, serves the
// highest-priority fixture for that operation when one exists, and otherwise
// derives a response from the document's examples or schemas. Observers
// subscribed with Subscribe receive a RequestHandled event for each request,
// which is how interactions are recorded and fixtures proposed.
//
// Server adapts an Engine to net/http, reserving /__mockd/health and
// /__mockd/metrics. On Close it drains in-flight requests before running
// registered flushers.
package mock
