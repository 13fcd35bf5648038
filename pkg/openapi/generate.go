package openapi

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
)

// maxArrayItems caps generated arrays.
const maxArrayItems = 3

// generator derives example values from schemas. Output depends only on the
// schema and property names, so the same document always yields the same
// response.
type generator struct {
	visiting map[*openapi3.Schema]bool
}

func newGenerator() *generator {
	return &generator{visiting: make(map[*openapi3.Schema]bool)}
}

// Generate follows this priority chain:
//  1. Explicit example value on the schema
//  2. First enum value
//  3. Default value
//  4. Composition (allOf merged, first oneOf/anyOf)
//  5. Type-specific synthesis with format and property-name heuristics
func (g *generator) Generate(ref *openapi3.SchemaRef, name string) (any, bool) {
	if ref == nil || ref.Value == nil {
		return nil, false
	}
	s := ref.Value
	if g.visiting[s] {
		return nil, false
	}
	g.visiting[s] = true
	defer delete(g.visiting, s)

	if s.Example != nil {
		return s.Example, true
	}
	if len(s.Enum) > 0 {
		return s.Enum[0], true
	}
	if s.Default != nil {
		return s.Default, true
	}

	if len(s.AllOf) > 0 {
		merged := make(map[string]any)
		for _, sub := range s.AllOf {
			if v, ok := g.Generate(sub, name); ok {
				if m, isMap := v.(map[string]any); isMap {
					for k, val := range m {
						merged[k] = val
					}
				}
			}
		}
		g.fillProperties(s, merged)
		return merged, true
	}
	if len(s.OneOf) > 0 {
		return g.Generate(s.OneOf[0], name)
	}
	if len(s.AnyOf) > 0 {
		return g.Generate(s.AnyOf[0], name)
	}

	switch schemaType(s) {
	case openapi3.TypeObject:
		obj := make(map[string]any, len(s.Properties))
		g.fillProperties(s, obj)
		return obj, true
	case openapi3.TypeArray:
		return g.array(s, name), true
	case openapi3.TypeString:
		return stringValue(s, name), true
	case openapi3.TypeInteger:
		return int64(numberValue(s)), true
	case openapi3.TypeNumber:
		return numberValue(s), true
	case openapi3.TypeBoolean:
		return true, true
	case openapi3.TypeNull:
		return nil, true
	}

	if len(s.Properties) > 0 {
		obj := make(map[string]any, len(s.Properties))
		g.fillProperties(s, obj)
		return obj, true
	}
	return nil, false
}

func (g *generator) fillProperties(s *openapi3.Schema, obj map[string]any) {
	for name, prop := range s.Properties {
		if v, ok := g.Generate(prop, name); ok {
			obj[name] = v
		}
	}
}

func (g *generator) array(s *openapi3.Schema, name string) []any {
	count := 1
	if s.MinItems > uint64(count) {
		count = int(s.MinItems)
	}
	if s.MaxItems != nil && uint64(count) > *s.MaxItems {
		count = int(*s.MaxItems)
	}
	if count > maxArrayItems {
		count = maxArrayItems
	}
	items := make([]any, 0, count)
	for i := 0; i < count; i++ {
		v, ok := g.Generate(s.Items, singular(name))
		if !ok {
			break
		}
		items = append(items, v)
	}
	return items
}

// schemaType returns the first non-null declared type.
func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, t := range *s.Type {
		if t != openapi3.TypeNull {
			return t
		}
	}
	if len(*s.Type) > 0 {
		return openapi3.TypeNull
	}
	return ""
}

func numberValue(s *openapi3.Schema) float64 {
	v := 1.0
	if s.Min != nil {
		v = *s.Min
		if s.ExclusiveMin {
			v++
		}
	}
	if s.Max != nil && v > *s.Max {
		v = *s.Max
		if s.ExclusiveMax {
			v--
		}
	}
	return v
}

func stringValue(s *openapi3.Schema, name string) string {
	v := stringByFormat(s.Format, name)
	if v == "" {
		v = stringByFieldName(name)
	}
	if v == "" {
		v = "string"
	}
	if minLen := int(s.MinLength); len(v) < minLen {
		v += strings.Repeat("x", minLen-len(v))
	}
	if s.MaxLength != nil && uint64(len(v)) > *s.MaxLength {
		v = v[:*s.MaxLength]
	}
	return v
}

// stableUUID derives a UUID from the property name.
func stableUUID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mockd-contract:"+name)).String()
}

func stringByFormat(format, name string) string {
	switch format {
	case "email":
		return "jane.smith@example.com"
	case "uuid":
		return stableUUID(name)
	case "uri", "url":
		return "https://example.com/resource"
	case "hostname":
		return "api.example.com"
	case "ipv4":
		return "192.0.2.1"
	case "ipv6":
		return "2001:db8::1"
	case "date-time":
		return "2024-01-15T10:30:00Z"
	case "date":
		return "2024-01-15"
	case "time":
		return "10:30:00Z"
	case "byte":
		return "dGVzdA=="
	case "binary":
		return "48656c6c6f"
	case "password":
		return "P@ssw0rd!"
	}
	return ""
}

func stringByFieldName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "":
		return ""
	case lower == "id" || lower == "uuid" || strings.HasSuffix(lower, "_id") || strings.HasSuffix(name, "Id"):
		return stableUUID(name)
	case strings.Contains(lower, "email"):
		return "jane.smith@example.com"
	case lower == "name" || lower == "full_name" || lower == "fullname":
		return "Jane Smith"
	case lower == "first_name" || lower == "firstname":
		return "Jane"
	case lower == "last_name" || lower == "lastname":
		return "Smith"
	case strings.Contains(lower, "phone"):
		return "+1-555-010-0000"
	case lower == "url" || lower == "href" || lower == "link" || lower == "website":
		return "https://example.com/resource"
	case strings.HasSuffix(lower, "_at") || strings.HasSuffix(lower, "date") || lower == "timestamp":
		return "2024-01-15T10:30:00Z"
	case lower == "currency" || lower == "currency_code":
		return "USD"
	case lower == "country":
		return "US"
	case lower == "status":
		return "active"
	}
	return ""
}

func singular(name string) string {
	if strings.HasSuffix(name, "s") && len(name) > 1 {
		return strings.TrimSuffix(name, "s")
	}
	return ""
}

// ExampleFromSchema synthesizes a value for a JSON Schema given as decoded
// JSON or YAML data. It is used for message payloads outside OpenAPI documents.
func ExampleFromSchema(schema any, name string) (any, bool) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, false
	}
	var s openapi3.Schema
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, false
	}
	return newGenerator().Generate(openapi3.NewSchemaRef("", &s), name)
}
