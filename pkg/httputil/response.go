// Package httputil provides shared HTTP helpers for writing mock responses
// and JSON error bodies.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error body of the form {"error": code, "message": msg}.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteErrorWithDetails writes a JSON error body with an extra details field.
func WriteErrorWithDetails(w http.ResponseWriter, status int, errCode, message string, details any) {
	WriteJSON(w, status, map[string]any{
		"error":   errCode,
		"message": message,
		"details": details,
	})
}

// WriteResponse writes a normalized response to the wire. Recorded headers are
// copied verbatim; a Content-Type is added only when the body is JSON and the
// recorded headers do not carry one.
func WriteResponse(w http.ResponseWriter, resp *contract.Response) error {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	data, isJSON, err := contract.EncodeBody(resp.Header("Content-Type"), resp.Body)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return err
	}

	h := w.Header()
	for k, v := range resp.Headers {
		h.Set(k, v)
	}
	if isJSON && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json")
	}
	h.Del("Content-Length")
	if len(data) > 0 {
		h.Set("Content-Length", strconv.Itoa(len(data)))
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(data) > 0 {
		_, err = w.Write(data)
	}
	return err
}

// DefaultMaxBodySize bounds request and response bodies read into memory.
const DefaultMaxBodySize = 10 << 20

// ReadRequest normalizes an inbound request. The body is decoded as JSON when
// the Content-Type says so and kept as text otherwise; the raw bytes are
// returned alongside.
func ReadRequest(r *http.Request, maxBody int64) (*contract.Request, []byte, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	var raw []byte
	if r.Body != nil {
		var err error
		raw, err = io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			return nil, nil, err
		}
	}
	return &contract.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: contract.FlattenHeader(r.Header),
		Query:   contract.FlattenQuery(r.URL.Query()),
		Body:    contract.DecodeBody(r.Header.Get("Content-Type"), raw),
	}, raw, nil
}

// ReadResponse normalizes a response received from a provider and closes its body.
func ReadResponse(resp *http.Response, maxBody int64) (*contract.Response, error) {
	defer func() { _ = resp.Body.Close() }()
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return &contract.Response{
		Status:  resp.StatusCode,
		Headers: contract.FlattenHeader(resp.Header),
		Body:    contract.DecodeBody(resp.Header.Get("Content-Type"), raw),
	}, nil
}
