package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrVersionUnresolvable is returned when the broker cannot resolve a
// deployment alias such as "latest" to a concrete version.
var ErrVersionUnresolvable = errors.New("version unresolvable")

// APIError is a non-success response from the broker.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("broker returned %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SpecNotFoundError is the broker's 404 for a spec lookup. Its message
// always lists the available versions and a suggestion; when the broker
// sends none, a default suggestion is used.
type SpecNotFoundError struct {
	Service           string
	Version           string
	Environment       string
	Message           string
	AvailableVersions []string
	Suggestion        string
}

func (e *SpecNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "spec not found for %s@%s", e.Service, e.Version)
	if e.Environment != "" {
		fmt.Fprintf(&b, " in %s", e.Environment)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimSuffix(e.Message, "."))
	}
	available := "none"
	if len(e.AvailableVersions) > 0 {
		available = strings.Join(e.AvailableVersions, ", ")
	}
	fmt.Fprintf(&b, " (available versions: %s). ", available)
	b.WriteString(e.suggestion())
	return b.String()
}

func (e *SpecNotFoundError) suggestion() string {
	if e.Suggestion != "" {
		return e.Suggestion
	}
	switch {
	case e.Version == LatestVersion && e.Environment != "":
		return fmt.Sprintf("Upload a spec for %s or record a deployment to %s.", e.Service, e.Environment)
	case e.Version == LatestVersion:
		return fmt.Sprintf("Upload a spec for %s or record a deployment.", e.Service)
	case len(e.AvailableVersions) > 0:
		return fmt.Sprintf("Publish %s@%s or pin one of the available versions.", e.Service, e.Version)
	}
	return fmt.Sprintf("Upload a spec for %s@%s.", e.Service, e.Version)
}

// Is lets errors.Is(err, ErrVersionUnresolvable) match a lookup of an alias
// that the broker could not pin to any version.
func (e *SpecNotFoundError) Is(target error) bool {
	return target == ErrVersionUnresolvable && e.Version == LatestVersion
}

type errorBody struct {
	Error             string   `json:"error"`
	Message           string   `json:"message"`
	AvailableVersions []string `json:"availableVersions"`
	Suggestion        string   `json:"suggestion"`
}

func parseError(status int, body []byte) (*APIError, errorBody) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Message != "" || eb.Error != "") {
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		return &APIError{StatusCode: status, ErrorCode: eb.Error, Message: msg}, eb
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, ErrorCode: "unknown_error", Message: msg}, eb
}
