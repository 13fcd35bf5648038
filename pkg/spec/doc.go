// Package spec turns a fetched contract.Spec into a mock.Document.
//
// The spec type selects the loader: OpenAPI through kin-openapi, GraphQL SDL
// through gqlparser, AsyncAPI through the YAML channel model and .proto
// sources through protocompile. When a spec arrives without a type it is
// sniffed from the content.
package spec
