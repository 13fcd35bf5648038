package graphql

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

// DefaultEndpoint is the path operations are reported under.
const DefaultEndpoint = "/graphql"

// Document is a GraphQL schema exposed as mock operations.
type Document struct {
	schema   *Schema
	endpoint string
	ops      []contract.Operation
}

// Load parses SDL into a Document.
func Load(sdl string) (*Document, error) {
	schema, err := ParseSchema(sdl)
	if err != nil {
		return nil, err
	}
	d := &Document{schema: schema, endpoint: DefaultEndpoint}
	add := func(kind, prefix string, op ast.Operation) {
		for _, name := range schema.Fields(op) {
			d.ops = append(d.ops, contract.Operation{
				ID:      prefix + "." + name,
				Method:  http.MethodPost,
				Path:    d.endpoint,
				Kind:    kind,
				Summary: schema.RootField(op, name).Description,
			})
		}
	}
	add(contract.KindQuery, "query", ast.Query)
	add(contract.KindMutation, "mutation", ast.Mutation)
	add(contract.KindSubscription, "subscription", ast.Subscription)
	return d, nil
}

// Schema returns the parsed schema.
func (d *Document) Schema() *Schema { return d.schema }

// Type implements mock.Document.
func (d *Document) Type() contract.SpecType { return contract.SpecTypeGraphQL }

// Operations returns queries, then mutations, then subscriptions, each sorted by name.
func (d *Document) Operations() []contract.Operation {
	return append([]contract.Operation(nil), d.ops...)
}

// Resolve maps req to the operation of its first selected root field.
// Any path is accepted; the operation is determined by the document.
func (d *Document) Resolve(req *contract.Request) (contract.Operation, map[string]string, bool) {
	gql, err := ParseRequest(req)
	if err != nil {
		return contract.Operation{}, nil, false
	}
	doc, err := parseQuery(gql.Query)
	if err != nil {
		return contract.Operation{}, nil, false
	}
	op, err := selectOperation(doc, gql.OperationName)
	if err != nil {
		return contract.Operation{}, nil, false
	}
	field := rootField(doc, op.SelectionSet)
	if field == nil || d.schema.RootField(op.Operation, field.Name) == nil {
		return contract.Operation{}, nil, false
	}
	id := string(op.Operation) + "." + field.Name
	for _, o := range d.ops {
		if o.ID == id {
			return o, nil, true
		}
	}
	return contract.Operation{}, nil, false
}

// Example synthesizes {"data": ...} for the request's selection set.
// Without a parseable request, every scalar field of the root field's type
// is included.
func (d *Document) Example(op contract.Operation, req *contract.Request) (*contract.Response, bool) {
	kind, name, ok := splitOperationID(op.ID)
	if !ok {
		return nil, false
	}
	def := d.schema.RootField(kind, name)
	if def == nil {
		return nil, false
	}
	gen := newGenerator(d.schema)

	data := map[string]any{}
	if doc, opDef := d.validatedOperation(req); opDef != nil {
		data = gen.selection(doc, rootDefinition(d.schema.AST(), opDef.Operation), opDef.SelectionSet)
	} else {
		data[name] = gen.value(def.Type, nil, nil, name)
	}
	return &contract.Response{
		Status:  http.StatusOK,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    map[string]any{"data": data},
	}, true
}

func (d *Document) validatedOperation(req *contract.Request) (*ast.QueryDocument, *ast.OperationDefinition) {
	gql, err := ParseRequest(req)
	if err != nil {
		return nil, nil
	}
	doc, errs := gqlparser.LoadQueryWithRules(d.schema.AST(), gql.Query, nil)
	if len(errs) > 0 {
		return nil, nil
	}
	op, err := selectOperation(doc, gql.OperationName)
	if err != nil {
		return nil, nil
	}
	return doc, op
}

// ValidateRequest parses and validates the query against the schema.
func (d *Document) ValidateRequest(_ context.Context, _ contract.Operation, _ map[string]string, req *contract.Request) *validation.Result {
	result := validation.Valid()
	gql, err := ParseRequest(req)
	if err != nil {
		result.AddError(validation.NewRequiredError("query", validation.LocationBody))
		return result
	}
	doc, errs := gqlparser.LoadQueryWithRules(d.schema.AST(), gql.Query, nil)
	for _, e := range errs {
		result.AddError(fromGQLError(e))
	}
	if doc != nil {
		if _, err := selectOperation(doc, gql.OperationName); err != nil {
			result.AddError(&validation.FieldError{
				Field:    "operationName",
				Location: validation.LocationBody,
				Code:     validation.ErrCodeNoOperation,
				Message:  err.Error(),
			})
		}
	}
	return result
}

// ValidateResponse checks that the response data matches the selection set:
// every selected field is present, non-null fields are not null, and scalar
// and list shapes agree with the schema.
func (d *Document) ValidateResponse(_ context.Context, _ contract.Operation, _ map[string]string, req *contract.Request, resp *contract.Response) *validation.Result {
	result := validation.Valid()
	body, ok := resp.Body.(map[string]any)
	if !ok {
		result.AddError(validation.NewTypeError("", validation.LocationResponse, "object", resp.Body))
		return result
	}
	if _, hasErrors := body["errors"]; hasErrors {
		return result
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		result.AddError(validation.NewRequiredError("data", validation.LocationResponse))
		return result
	}
	doc, op := d.validatedOperation(req)
	if op == nil {
		return result
	}
	checkSelection(d.schema, doc, op.SelectionSet, data, "data", result)
	return result
}

func fromGQLError(e *gqlerror.Error) *validation.FieldError {
	fe := &validation.FieldError{
		Field:    e.Path.String(),
		Location: validation.LocationBody,
		Code:     validation.ErrCodeSchema,
		Message:  e.Message,
	}
	if fe.Field == "" && len(e.Locations) > 0 {
		fe.Field = fmt.Sprintf("query:%d:%d", e.Locations[0].Line, e.Locations[0].Column)
	}
	return fe
}

func splitOperationID(id string) (ast.Operation, string, bool) {
	for _, kind := range []ast.Operation{ast.Query, ast.Mutation, ast.Subscription} {
		prefix := string(kind) + "."
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			return kind, id[len(prefix):], true
		}
	}
	return "", "", false
}

func rootDefinition(schema *ast.Schema, op ast.Operation) *ast.Definition {
	switch op {
	case ast.Mutation:
		return schema.Mutation
	case ast.Subscription:
		return schema.Subscription
	default:
		return schema.Query
	}
}
