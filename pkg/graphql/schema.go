package graphql

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// ErrNoQueryType is returned for an SDL without a usable Query root.
var ErrNoQueryType = errors.New("schema must define a Query type with at least one field")

// Schema is a parsed SDL with its root fields indexed per operation kind.
// Introspection fields are not indexed.
type Schema struct {
	ast   *ast.Schema
	roots map[ast.Operation]map[string]*ast.FieldDefinition
}

// ParseSchema parses GraphQL SDL.
func ParseSchema(sdl string) (*Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("parse GraphQL schema: %w", err)
	}
	if schema.Query == nil || len(schema.Query.Fields) == 0 {
		return nil, ErrNoQueryType
	}
	return &Schema{
		ast: schema,
		roots: map[ast.Operation]map[string]*ast.FieldDefinition{
			ast.Query:        rootFields(schema.Query),
			ast.Mutation:     rootFields(schema.Mutation),
			ast.Subscription: rootFields(schema.Subscription),
		},
	}, nil
}

func rootFields(def *ast.Definition) map[string]*ast.FieldDefinition {
	out := make(map[string]*ast.FieldDefinition)
	if def == nil {
		return out
	}
	for _, f := range def.Fields {
		if len(f.Name) < 2 || f.Name[:2] != "__" {
			out[f.Name] = f
		}
	}
	return out
}

// AST returns the underlying gqlparser schema.
func (s *Schema) AST() *ast.Schema { return s.ast }

// GetType returns a named type, or nil.
func (s *Schema) GetType(name string) *ast.Definition {
	return s.ast.Types[name]
}

// RootField returns the root field name of kind op, or nil.
func (s *Schema) RootField(op ast.Operation, name string) *ast.FieldDefinition {
	return s.roots[op][name]
}

// Fields returns the sorted root field names of kind op.
func (s *Schema) Fields(op ast.Operation) []string {
	names := make([]string, 0, len(s.roots[op]))
	for name := range s.roots[op] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
