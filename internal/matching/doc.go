// Package matching resolves request paths against API operation templates.
//
// Templates use OpenAPI-style named parameters: "/users/{id}" matches any
// single segment in the {id} position, and only paths with the same number of
// segments. Exact template matches always beat parameterized ones; among
// parameterized templates the one with more literal segments wins.
//
// When nothing resolves, NearMisses ranks templates that came close so a 404
// can say which operation the caller probably meant.
package matching
