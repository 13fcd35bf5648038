// Package openapi serves and validates mock traffic for OpenAPI 3 documents.
//
// A Document resolves requests to operations by exact path first and
// {param} templates second, derives deterministic responses from examples or
// schemas, and validates requests and responses with kin-openapi.
package openapi
