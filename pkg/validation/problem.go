package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProblemContentType is the media type of an ErrorResponse.
const ProblemContentType = "application/problem+json"

// ErrorResponse is an RFC 7807 problem document listing the violations
// of a failed Result.
type ErrorResponse struct {
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	Status int           `json:"status"`
	Detail string        `json:"detail,omitempty"`
	Errors []*FieldError `json:"errors"`
}

// NewErrorResponse builds the problem document for result. A zero status
// means 400.
func NewErrorResponse(result *Result, status int) *ErrorResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := &ErrorResponse{
		Type:   "validation_error",
		Title:  "Request does not match the API contract",
		Status: status,
		Errors: result.Errors,
	}
	switch n := len(result.Errors); {
	case n == 1:
		resp.Detail = result.Errors[0].Message
	case n > 1:
		resp.Detail = fmt.Sprintf("%d validation errors", n)
	}
	return resp
}

func (e *ErrorResponse) Error() string {
	return e.Title + ": " + e.Detail
}

// WriteResponse writes e as the response.
func (e *ErrorResponse) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
