package graphql_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/graphql"
)

func loadCatalog(t *testing.T) *graphql.Document {
	t.Helper()
	sdl, err := os.ReadFile("testdata/catalog.graphql")
	require.NoError(t, err)
	doc, err := graphql.Load(string(sdl))
	require.NoError(t, err)
	return doc
}

func gqlRequest(query string) *contract.Request {
	return &contract.Request{
		Method:  "POST",
		Path:    "/graphql",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    map[string]any{"query": query},
	}
}

func TestLoad_Operations(t *testing.T) {
	doc := loadCatalog(t)

	var ids []string
	for _, op := range doc.Operations() {
		ids = append(ids, op.ID)
		assert.Equal(t, "POST", op.Method)
		assert.Equal(t, graphql.DefaultEndpoint, op.Path)
	}
	assert.Equal(t, []string{
		"query.product",
		"query.products",
		"mutation.createProduct",
		"subscription.productChanged",
	}, ids)
	assert.Equal(t, contract.SpecTypeGraphQL, doc.Type())
	assert.Equal(t, "Look up a single product.", doc.Operations()[0].Summary)
}

func TestLoad_RequiresQueryType(t *testing.T) {
	_, err := graphql.Load(`type Thing { id: ID }`)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	doc := loadCatalog(t)

	tests := []struct {
		name   string
		req    *contract.Request
		wantID string
		wantOK bool
	}{
		{
			name:   "query root field",
			req:    gqlRequest(`{ product(id: "1") { id name } }`),
			wantID: "query.product",
			wantOK: true,
		},
		{
			name:   "named mutation",
			req:    gqlRequest(`mutation Create { createProduct(input: {name: "a", price: 1}) { id } }`),
			wantID: "mutation.createProduct",
			wantOK: true,
		},
		{
			name:   "typename is skipped",
			req:    gqlRequest(`{ __typename products { id } }`),
			wantID: "query.products",
			wantOK: true,
		},
		{
			name: "GET query parameter",
			req: &contract.Request{
				Method: "GET",
				Path:   "/graphql",
				Query:  map[string]string{"query": "{ products { id } }"},
			},
			wantID: "query.products",
			wantOK: true,
		},
		{
			name:   "unknown field",
			req:    gqlRequest(`{ order { id } }`),
			wantOK: false,
		},
		{
			name:   "no query",
			req:    &contract.Request{Method: "POST", Path: "/graphql"},
			wantOK: false,
		},
		{
			name:   "syntax error",
			req:    gqlRequest(`{ product(`),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, _, ok := doc.Resolve(tt.req)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, op.ID)
			}
		})
	}
}

func TestExample_FollowsSelectionSet(t *testing.T) {
	doc := loadCatalog(t)
	req := gqlRequest(`{ item: product(id: "1") { id name status tags } }`)
	op, _, ok := doc.Resolve(req)
	require.True(t, ok)

	resp, ok := doc.Example(op, req)
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)

	data := resp.Body.(map[string]any)["data"].(map[string]any)
	item := data["item"].(map[string]any)
	assert.Equal(t, "id-1", item["id"])
	assert.Equal(t, "Jane Smith", item["name"])
	assert.Equal(t, "ACTIVE", item["status"])
	assert.Equal(t, []any{"string"}, item["tags"])
	assert.NotContains(t, item, "price")

	again, _ := doc.Example(op, req)
	assert.Equal(t, resp, again)
}

func TestExample_WithoutSelection(t *testing.T) {
	doc := loadCatalog(t)

	resp, ok := doc.Example(contract.Operation{ID: "mutation.createProduct"}, nil)
	require.True(t, ok)

	data := resp.Body.(map[string]any)["data"].(map[string]any)
	product := data["createProduct"].(map[string]any)
	assert.Equal(t, 1.5, product["price"])
	assert.Equal(t, 1, product["stock"])
	assert.Equal(t, "2024-01-15T10:30:00Z", product["createdAt"])

	_, ok = doc.Example(contract.Operation{ID: "query.missing"}, nil)
	assert.False(t, ok)
}

func TestValidateRequest(t *testing.T) {
	doc := loadCatalog(t)
	ctx := context.Background()

	res := doc.ValidateRequest(ctx, contract.Operation{}, nil, gqlRequest(`{ product(id: "1") { id } }`))
	assert.True(t, res.Valid, res.Messages())

	res = doc.ValidateRequest(ctx, contract.Operation{}, nil, gqlRequest(`{ product(id: "1") { id sku } }`))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Messages())

	res = doc.ValidateRequest(ctx, contract.Operation{}, nil, gqlRequest(`{ product { id } }`))
	assert.False(t, res.Valid, "missing required argument")

	res = doc.ValidateRequest(ctx, contract.Operation{}, nil, &contract.Request{Method: "POST", Path: "/graphql"})
	require.False(t, res.Valid)
	assert.Equal(t, "query", res.Errors[0].Field)
}

func TestValidateResponse(t *testing.T) {
	doc := loadCatalog(t)
	ctx := context.Background()
	req := gqlRequest(`{ product(id: "1") { id name tags } }`)

	good := &contract.Response{Status: 200, Body: map[string]any{
		"data": map[string]any{
			"product": map[string]any{"id": "1", "name": "Lamp", "tags": []any{"home"}},
		},
	}}
	assert.True(t, doc.ValidateResponse(ctx, contract.Operation{}, nil, req, good).Valid)

	nullable := &contract.Response{Status: 200, Body: map[string]any{
		"data": map[string]any{"product": nil},
	}}
	assert.True(t, doc.ValidateResponse(ctx, contract.Operation{}, nil, req, nullable).Valid)

	bad := &contract.Response{Status: 200, Body: map[string]any{
		"data": map[string]any{
			"product": map[string]any{"id": "1", "name": nil, "tags": "home"},
		},
	}}
	res := doc.ValidateResponse(ctx, contract.Operation{}, nil, req, bad)
	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)

	missing := &contract.Response{Status: 200, Body: map[string]any{"data": map[string]any{}}}
	res = doc.ValidateResponse(ctx, contract.Operation{}, nil, req, missing)
	require.False(t, res.Valid)
	assert.Equal(t, "data.product", res.Errors[0].Field)

	withErrors := &contract.Response{Status: 200, Body: map[string]any{"errors": []any{map[string]any{"message": "boom"}}}}
	assert.True(t, doc.ValidateResponse(ctx, contract.Operation{}, nil, req, withErrors).Valid)
}
