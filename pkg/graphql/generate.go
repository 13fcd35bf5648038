package graphql

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// maxDepth bounds synthesis for self-referencing types without a selection set.
const maxDepth = 3

type generator struct {
	schema *Schema
}

func newGenerator(schema *Schema) *generator {
	return &generator{schema: schema}
}

// selection builds the response object for a selection set on parent.
func (g *generator) selection(doc *ast.QueryDocument, parent *ast.Definition, set ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			alias := s.Alias
			if alias == "" {
				alias = s.Name
			}
			if s.Name == "__typename" {
				if parent != nil {
					out[alias] = parent.Name
				}
				continue
			}
			def := s.Definition
			if def == nil && parent != nil {
				def = parent.Fields.ForName(s.Name)
			}
			if def == nil {
				continue
			}
			out[alias] = g.value(def.Type, doc, s.SelectionSet, s.Name)
		case *ast.InlineFragment:
			target := parent
			if s.TypeCondition != "" {
				if parent != nil && parent.Kind == ast.Object && parent.Name != s.TypeCondition {
					continue
				}
				if def := g.schema.GetType(s.TypeCondition); def != nil {
					target = def
				}
			}
			for k, v := range g.selection(doc, target, s.SelectionSet) {
				out[k] = v
			}
		case *ast.FragmentSpread:
			if doc == nil {
				continue
			}
			frag := doc.Fragments.ForName(s.Name)
			if frag == nil {
				continue
			}
			for k, v := range g.selection(doc, parent, frag.SelectionSet) {
				out[k] = v
			}
		}
	}
	return out
}

// value synthesizes a value for t. With a selection set, objects contain
// exactly the selected fields; without one, all scalar fields up to maxDepth.
func (g *generator) value(t *ast.Type, doc *ast.QueryDocument, set ast.SelectionSet, name string) any {
	return g.valueDepth(t, doc, set, name, 0)
}

func (g *generator) valueDepth(t *ast.Type, doc *ast.QueryDocument, set ast.SelectionSet, name string, depth int) any {
	if t.Elem != nil {
		return []any{g.valueDepth(t.Elem, doc, set, name, depth)}
	}
	switch t.NamedType {
	case "Int":
		return 1
	case "Float":
		return 1.5
	case "Boolean":
		return true
	case "ID":
		return name + "-1"
	case "String":
		return scalarString(name)
	}

	def := g.schema.GetType(t.NamedType)
	if def == nil {
		return nil
	}
	switch def.Kind {
	case ast.Enum:
		if len(def.EnumValues) > 0 {
			return def.EnumValues[0].Name
		}
		return nil
	case ast.Scalar:
		return scalarString(name)
	case ast.Interface, ast.Union:
		impl := g.firstPossibleType(def)
		if impl == nil {
			return nil
		}
		return g.object(impl, doc, set, depth)
	case ast.Object:
		return g.object(def, doc, set, depth)
	}
	return nil
}

func (g *generator) object(def *ast.Definition, doc *ast.QueryDocument, set ast.SelectionSet, depth int) any {
	if len(set) > 0 {
		return g.selection(doc, def, set)
	}
	out := make(map[string]any)
	if depth >= maxDepth {
		return out
	}
	for _, f := range def.Fields {
		if isIntrospectionField(f.Name) {
			continue
		}
		named := g.schema.GetType(f.Type.Name())
		if named != nil && (named.Kind == ast.Object || named.Kind == ast.Interface || named.Kind == ast.Union) && !f.Type.NonNull {
			continue
		}
		out[f.Name] = g.valueDepth(f.Type, doc, nil, f.Name, depth+1)
	}
	return out
}

func (g *generator) firstPossibleType(def *ast.Definition) *ast.Definition {
	if possible := g.schema.AST().GetPossibleTypes(def); len(possible) > 0 {
		return possible[0]
	}
	return nil
}

func scalarString(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "email"):
		return "jane.smith@example.com"
	case lower == "name":
		return "Jane Smith"
	case strings.HasSuffix(name, "At"), strings.HasSuffix(lower, "_at"):
		return "2024-01-15T10:30:00Z"
	case lower == "url":
		return "https://example.com/resource"
	}
	return "string"
}
