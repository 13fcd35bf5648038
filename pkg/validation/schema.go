package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema given as decoded JSON or YAML data.
// name is used as the resource URL and appears in error messages.
func CompileSchema(name string, schema any) (*Schema, error) {
	if name == "" {
		name = "schema.json"
	}
	// Round-trip through JSON so YAML-decoded maps and ints look like JSON.
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: compiled}, nil
}

// Validate checks v against the schema. Errors are reported at location.
func (s *Schema) Validate(location string, v any) *Result {
	result := Valid()
	if s == nil || s.schema == nil {
		return result
	}

	doc, err := toJSONValue(v)
	if err != nil {
		result.AddError(NewInvalidJSONError(err.Error()))
		return result
	}

	if err := s.schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			parseSchemaErrors(validationErr, location, result)
		} else {
			result.AddError(NewSchemaError("", location, err.Error()))
		}
	}
	return result
}

func toJSONValue(v any) (any, error) {
	if s, ok := v.(string); ok {
		var out any
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out, nil
		}
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseSchemaErrors flattens the leaf causes of a validation error.
func parseSchemaErrors(err *jsonschema.ValidationError, location string, result *Result) {
	if len(err.Causes) == 0 {
		result.AddError(NewSchemaError(extractFieldFromPath(err.InstanceLocation), location, err.Message))
		return
	}
	for _, cause := range err.Causes {
		parseSchemaErrors(cause, location, result)
	}
}

// extractFieldFromPath converts a JSON Pointer to dot notation.
func extractFieldFromPath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	path = strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}
