package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/getmockd/mockd-contract/pkg/validation"
)

// checkSelection validates data against the selection set of a validated query.
func checkSelection(schema *Schema, doc *ast.QueryDocument, set ast.SelectionSet, data map[string]any, path string, result *validation.Result) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Definition == nil {
				continue
			}
			alias := s.Alias
			if alias == "" {
				alias = s.Name
			}
			field := path + "." + alias
			v, ok := data[alias]
			if !ok {
				result.AddError(validation.NewRequiredError(field, validation.LocationResponse))
				continue
			}
			checkValue(schema, doc, s.Definition.Type, s.SelectionSet, v, field, result)
		case *ast.InlineFragment:
			checkSelection(schema, doc, s.SelectionSet, data, path, result)
		case *ast.FragmentSpread:
			if frag := doc.Fragments.ForName(s.Name); frag != nil {
				checkSelection(schema, doc, frag.SelectionSet, data, path, result)
			}
		}
	}
}

func checkValue(schema *Schema, doc *ast.QueryDocument, t *ast.Type, set ast.SelectionSet, v any, field string, result *validation.Result) {
	if v == nil {
		if t.NonNull {
			result.AddError(&validation.FieldError{
				Field:    field,
				Location: validation.LocationResponse,
				Code:     validation.ErrCodeRequired,
				Message:  fmt.Sprintf("non-null field %s is null", t.String()),
			})
		}
		return
	}

	if t.Elem != nil {
		list, ok := v.([]any)
		if !ok {
			result.AddError(validation.NewTypeError(field, validation.LocationResponse, "list", v))
			return
		}
		for i, item := range list {
			checkValue(schema, doc, t.Elem, set, item, fmt.Sprintf("%s[%d]", field, i), result)
		}
		return
	}

	switch t.NamedType {
	case "Int", "Float":
		if !isNumber(v) {
			result.AddError(validation.NewTypeError(field, validation.LocationResponse, t.NamedType, v))
		}
		return
	case "Boolean":
		if _, ok := v.(bool); !ok {
			result.AddError(validation.NewTypeError(field, validation.LocationResponse, t.NamedType, v))
		}
		return
	case "String":
		if _, ok := v.(string); !ok {
			result.AddError(validation.NewTypeError(field, validation.LocationResponse, t.NamedType, v))
		}
		return
	case "ID":
		if _, ok := v.(string); !ok && !isNumber(v) {
			result.AddError(validation.NewTypeError(field, validation.LocationResponse, t.NamedType, v))
		}
		return
	}

	if len(set) == 0 {
		return
	}
	obj, ok := v.(map[string]any)
	if !ok {
		result.AddError(validation.NewTypeError(field, validation.LocationResponse, t.NamedType, v))
		return
	}
	checkSelection(schema, doc, set, obj, field, result)
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}
