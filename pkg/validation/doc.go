// Package validation holds the validation result model shared by every spec
// type, plus the two schema engines behind it.
//
// OpenAPI documents are validated by kin-openapi; its errors are converted
// into FieldErrors by FromOpenAPIError. AsyncAPI message payloads and other
// plain JSON Schemas are compiled with santhosh-tekuri/jsonschema (draft
// 2020-12) through CompileSchema.
//
// A failed Result can be rendered as an RFC 7807 problem document with
// NewErrorResponse, which the mock server returns in strict mode.
package validation
