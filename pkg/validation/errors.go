package validation

import (
	"fmt"
)

// Machine-readable error codes.
const (
	ErrCodeRequired     = "required"
	ErrCodeType         = "type"
	ErrCodeSchema       = "schema"
	ErrCodeInvalidJSON  = "invalid_json"
	ErrCodeNoOperation  = "no_operation"
	ErrCodeSpec         = "spec_validation"
	ErrCodeUnknownField = "unknown_field"
)

// Where a field lives in the exchange.
const (
	LocationBody     = "body"
	LocationPath     = "path"
	LocationQuery    = "query"
	LocationHeader   = "header"
	LocationResponse = "response"
	LocationRequest  = "request"
	LocationPayload  = "payload"
)

// FieldError describes one violation. Field is empty when the violation
// applies to the whole location (an unparsable body, for instance).
type FieldError struct {
	Field    string `json:"field"`
	Location string `json:"location"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Received any    `json:"received,omitempty"`
	Expected string `json:"expected,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Location + "." + e.Field + ": " + e.Message
}

// NewRequiredError reports a missing field.
func NewRequiredError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeRequired,
		Message:  fmt.Sprintf("field '%s' is required", field),
		Expected: "non-null value",
		Hint:     fmt.Sprintf("Add '%s' to the %s", field, location),
	}
}

// NewTypeError reports a value of the wrong JSON type.
func NewTypeError(field, location, expected string, received any) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeType,
		Message:  fmt.Sprintf("expected type '%s'", expected),
		Received: received,
		Expected: expected,
	}
}

func NewSchemaError(field, location, message string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeSchema,
		Message:  message,
	}
}

func NewInvalidJSONError(message string) *FieldError {
	return &FieldError{
		Location: LocationBody,
		Code:     ErrCodeInvalidJSON,
		Message:  "invalid JSON: " + message,
		Hint:     "Send a well-formed JSON document",
	}
}
