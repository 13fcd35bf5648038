package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/httputil"
)

// Headers never copied from a recorded request.
var skipHeaders = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Accept-Encoding":   true,
	"Traceparent":       true,
	"Tracestate":        true,
}

func (v *Verifier) runInteraction(ctx context.Context, in contract.ClientInteraction) (res contract.VerificationResult) {
	start := time.Now()
	res = contract.VerificationResult{InteractionID: in.ID, Operation: in.Operation}
	log := v.log.With("interaction", in.ID, "operation", in.Operation)

	defer func() {
		if v.opts.Cleanup != nil {
			if err := v.safeHook(ctx, v.opts.Cleanup, in); err != nil {
				log.Warn("cleanup failed", "error", err)
			}
		}
		res.Duration = time.Since(start)
	}()

	if h, ok := v.opts.StateHandlers[in.Operation]; ok && h != nil {
		if err := v.safeHook(ctx, h, in); err != nil {
			log.Warn("state handler failed", "error", err)
			return replayFailed(res, fmt.Errorf("state handler: %w", err))
		}
	}

	actual, err := v.replay(ctx, in.Request)
	if err != nil {
		log.Warn("replay failed", "error", err)
		return replayFailed(res, err)
	}
	res.ActualResponse = actual

	expected := in.Response
	outcome := v.comparator.ValidateResponse(&expected, actual)
	res.Success = outcome.Success
	res.Error = outcome.Error
	res.ErrorDetails = outcome.Details
	if !outcome.Success {
		log.Info("interaction mismatch", "error", outcome.Error)
	}
	return res
}

// replayFailed marks res as failed without ErrorDetails: details are
// reserved for comparison outcomes.
func replayFailed(res contract.VerificationResult, err error) contract.VerificationResult {
	res.Success = false
	res.Error = err.Error()
	res.ErrorDetails = nil
	return res
}

// safeHook runs h, turning a panic into an error.
func (v *Verifier) safeHook(ctx context.Context, h Hook, in contract.ClientInteraction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, in)
}

func (v *Verifier) replay(ctx context.Context, rec contract.Request) (*contract.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	defer cancel()

	target, err := buildURL(v.opts.BaseURL, rec.Path, rec.Query)
	if err != nil {
		return nil, err
	}

	data, isJSON, err := contract.EncodeBody(rec.Header("Content-Type"), rec.Body)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	method := rec.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, val := range rec.Headers {
		if skipHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		req.Header.Set(k, val)
	}
	if isJSON && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	return httputil.ReadResponse(resp, 0)
}

func buildURL(base, path string, query map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid replay URL: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, val := range query {
			q.Set(k, val)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
