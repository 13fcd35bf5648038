// Package contract defines the shared data model for contract testing:
// specs, fixtures, recorded client interactions, verification tasks and
// their per-interaction results.
//
// The types here are plain values exchanged between the mock engine, the
// interaction recorder, the broker client and the verification replay
// engine. None of them carry behavior beyond small helpers; algorithms live
// in the packages that consume them (fixture, compare, version, verify).
//
// # Requests and Responses
//
// Request and Response are protocol-neutral: headers and query parameters
// are flattened to single values and bodies are decoded JSON values
// (map[string]any, []any, string, float64, bool, nil) or raw text when the
// payload is not JSON.
package contract
