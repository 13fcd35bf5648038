package openapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// ValidateRequest checks req against the operation's parameters and request
// body. Security requirements are not enforced.
func (d *Document) ValidateRequest(ctx context.Context, op contract.Operation, params map[string]string, req *contract.Request) *validation.Result {
	input, err := d.requestInput(ctx, op, params, req)
	if err != nil {
		return invalid(validation.LocationRequest, err)
	}
	return validation.FromOpenAPIError(openapi3filter.ValidateRequest(ctx, input))
}

// ValidateResponse checks resp against the operation's declared responses.
func (d *Document) ValidateResponse(ctx context.Context, op contract.Operation, params map[string]string, req *contract.Request, resp *contract.Response) *validation.Result {
	input, err := d.requestInput(ctx, op, params, req)
	if err != nil {
		return invalid(validation.LocationRequest, err)
	}

	header := http.Header{}
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	body, isJSON, err := contract.EncodeBody(resp.Header("Content-Type"), resp.Body)
	if err != nil {
		return invalid(validation.LocationResponse, err)
	}
	if isJSON && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}

	out := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 resp.Status,
		Header:                 header,
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}
	out.SetBodyBytes(body)

	result := validation.FromOpenAPIError(openapi3filter.ValidateResponse(ctx, out))
	for _, e := range result.Errors {
		if e.Location == "" {
			e.Location = validation.LocationResponse
		}
	}
	return result
}

func (d *Document) requestInput(ctx context.Context, op contract.Operation, params map[string]string, req *contract.Request) (*openapi3filter.RequestValidationInput, error) {
	o, ok := d.byID[op.ID]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", op.ID)
	}
	r, err := toHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route: &routers.Route{
			Spec:      d.doc,
			Path:      o.meta.Path,
			PathItem:  o.pathItem,
			Method:    o.meta.Method,
			Operation: o.op,
		},
		Options: &openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}, nil
}

func toHTTPRequest(ctx context.Context, req *contract.Request) (*http.Request, error) {
	u := &url.URL{Scheme: "http", Host: "mock.local", Path: req.Path}
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	body, isJSON, err := contract.EncodeBody(req.Header("Content-Type"), req.Body)
	if err != nil {
		return nil, err
	}
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, req.Method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	if isJSON && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return r, nil
}

func invalid(location string, err error) *validation.Result {
	result := validation.Valid()
	result.AddError(&validation.FieldError{
		Location: location,
		Code:     validation.ErrCodeSpec,
		Message:  err.Error(),
	})
	return result
}
