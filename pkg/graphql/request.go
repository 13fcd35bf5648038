package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// Request is a GraphQL-over-HTTP request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// ErrNoQuery is returned when a request carries no GraphQL document.
var ErrNoQuery = errors.New("request carries no GraphQL query")

// ParseRequest extracts the GraphQL request from an HTTP request. It accepts
// a JSON body with query/operationName/variables, a raw application/graphql
// body, or the query string parameters used by GET requests.
func ParseRequest(req *contract.Request) (*Request, error) {
	if req == nil {
		return nil, ErrNoQuery
	}

	switch body := req.Body.(type) {
	case map[string]any:
		out := &Request{}
		out.Query, _ = body["query"].(string)
		if out.Query == "" {
			out.Query, _ = body["mutation"].(string)
		}
		out.OperationName, _ = body["operationName"].(string)
		if vars, ok := body["variables"].(map[string]any); ok {
			out.Variables = vars
		}
		if out.Query != "" {
			return out, nil
		}
	case string:
		if strings.TrimSpace(body) != "" {
			return &Request{Query: body}, nil
		}
	}

	if q := req.Query["query"]; q != "" {
		out := &Request{Query: q, OperationName: req.Query["operationName"]}
		if raw := req.Query["variables"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &out.Variables); err != nil {
				return nil, fmt.Errorf("invalid variables parameter: %w", err)
			}
		}
		return out, nil
	}
	return nil, ErrNoQuery
}

// selectOperation returns the operation named name, or the only/first one
// when name is empty.
func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, errors.New("no operation found in query")
	}
	if name == "" {
		return doc.Operations[0], nil
	}
	op := doc.Operations.ForName(name)
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", name)
	}
	return op, nil
}

// rootField returns the first selected root field, expanding fragments.
func rootField(doc *ast.QueryDocument, selections ast.SelectionSet) *ast.Field {
	for _, sel := range selections {
		switch s := sel.(type) {
		case *ast.Field:
			if !isIntrospectionField(s.Name) {
				return s
			}
		case *ast.InlineFragment:
			if f := rootField(doc, s.SelectionSet); f != nil {
				return f
			}
		case *ast.FragmentSpread:
			if def := doc.Fragments.ForName(s.Name); def != nil {
				if f := rootField(doc, def.SelectionSet); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

func parseQuery(query string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "request.graphql", Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return doc, nil
}
