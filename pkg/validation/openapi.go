package validation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

// FromOpenAPIError converts an error returned by openapi3filter into a
// Result. A nil error yields a passing result.
func FromOpenAPIError(err error) *Result {
	result := Valid()
	collect(err, result)
	return result
}

func collect(err error, result *Result) {
	if err == nil {
		return
	}
	if multi, ok := err.(openapi3.MultiError); ok {
		for _, e := range multi {
			collect(e, result)
		}
		return
	}
	result.AddError(fieldErrorFor(err))
}

func fieldErrorFor(err error) *FieldError {
	var (
		reqErr    *openapi3filter.RequestError
		respErr   *openapi3filter.ResponseError
		secErr    *openapi3filter.SecurityRequirementsError
		schemaErr *openapi3.SchemaError
	)
	switch {
	case errors.As(err, &reqErr):
		fe := &FieldError{Location: requestLocation(reqErr), Code: ErrCodeSpec, Message: reqErr.Error()}
		if reqErr.Parameter != nil {
			fe.Field = reqErr.Parameter.Name
		}
		if reqErr.Err != nil {
			fe.Message = reqErr.Err.Error()
			applySchemaError(fe, reqErr.Err)
		}
		return fe
	case errors.As(err, &respErr):
		fe := &FieldError{Location: LocationResponse, Code: ErrCodeSpec, Message: respErr.Error()}
		if respErr.Err != nil {
			fe.Message = respErr.Err.Error()
			applySchemaError(fe, respErr.Err)
		}
		return fe
	case errors.As(err, &secErr):
		return &FieldError{Location: "security", Code: "security", Message: secErr.Error()}
	case errors.As(err, &schemaErr):
		fe := &FieldError{Location: LocationBody}
		applySchemaError(fe, schemaErr)
		return fe
	}
	return &FieldError{Location: "validation", Code: ErrCodeSpec, Message: err.Error()}
}

func requestLocation(err *openapi3filter.RequestError) string {
	switch {
	case err.Parameter != nil:
		switch err.Parameter.In {
		case openapi3.ParameterInPath:
			return LocationPath
		case openapi3.ParameterInQuery:
			return LocationQuery
		case openapi3.ParameterInHeader:
			return LocationHeader
		case openapi3.ParameterInCookie:
			return "cookie"
		}
		return "parameter"
	case err.RequestBody != nil:
		return LocationBody
	}
	return LocationRequest
}

// applySchemaError narrows fe to the offending property when err is a
// schema violation.
func applySchemaError(fe *FieldError, err error) {
	schemaErr, ok := err.(*openapi3.SchemaError)
	if !ok {
		return
	}
	fe.Code = ErrCodeSchema
	fe.Message = schemaErr.Reason
	if path := jsonPath(schemaErr.JSONPointer()); path != "" {
		fe.Field = path
	}
}

// jsonPath renders ["items","0","sku"] as $.items[0].sku. The root alone
// renders as "".
func jsonPath(pointer []string) string {
	var sb strings.Builder
	for _, part := range pointer {
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err == nil {
			sb.WriteString("[" + part + "]")
		} else {
			sb.WriteString("." + part)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "$" + sb.String()
}
