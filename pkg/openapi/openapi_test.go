package openapi

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

func loadOrders(t *testing.T) *Document {
	t.Helper()
	data, err := os.ReadFile("testdata/orders.yaml")
	require.NoError(t, err)
	doc, err := Load(context.Background(), data)
	require.NoError(t, err)
	return doc
}

func TestLoad_Operations(t *testing.T) {
	doc := loadOrders(t)
	assert.Equal(t, contract.SpecTypeOpenAPI, doc.Type())
	assert.Equal(t, "Orders API", doc.Title())

	var ids []string
	for _, op := range doc.Operations() {
		ids = append(ids, op.ID)
		assert.Equal(t, contract.KindHTTP, op.Kind)
	}
	assert.Equal(t, []string{
		"listOrders", "createOrder",
		"recentOrders",
		"getOrder", "DELETE /orders/{orderId}",
		"getReport",
	}, ids)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(context.Background(), []byte("openapi: 3.0.3\ninfo: {}\npaths: 7"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	doc := loadOrders(t)

	op, params, ok := doc.Resolve(&contract.Request{Method: "GET", Path: "/orders/recent"})
	require.True(t, ok)
	assert.Equal(t, "recentOrders", op.ID, "exact path beats template")
	assert.Empty(t, params)

	op, params, ok = doc.Resolve(&contract.Request{Method: "GET", Path: "/orders/o-42"})
	require.True(t, ok)
	assert.Equal(t, "getOrder", op.ID)
	assert.Equal(t, "o-42", params["orderId"])

	_, _, ok = doc.Resolve(&contract.Request{Method: "GET", Path: "/customers"})
	assert.False(t, ok)

	hints := doc.Hints(&contract.Request{Method: "PUT", Path: "/orders"})
	require.NotEmpty(t, hints)
	assert.Contains(t, hints[0], "listOrders")
}

func TestExample_FromMediaExample(t *testing.T) {
	doc := loadOrders(t)
	resp, ok := doc.Example(contract.Operation{ID: "createOrder"}, nil)
	require.True(t, ok)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, map[string]any{"id": "ord-1", "status": "pending"}, resp.Body)
}

func TestExample_NamedExamplesSorted(t *testing.T) {
	doc := loadOrders(t)
	resp, ok := doc.Example(contract.Operation{ID: "recentOrders"}, nil)
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status, "default response is served as 200")
	assert.Equal(t, []any{map[string]any{"id": "first"}}, resp.Body)
}

func TestExample_FromSchema(t *testing.T) {
	doc := loadOrders(t)
	resp, ok := doc.Example(contract.Operation{ID: "getOrder"}, nil)
	require.True(t, ok)
	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "pending", body["status"], "first enum value")
	assert.Equal(t, 0.0, body["total"], "minimum respected")
	assert.Equal(t, "2024-01-15T10:30:00Z", body["createdAt"])
	assert.Equal(t, "jane.smith@example.com", body["customerEmail"])
	assert.Len(t, body["id"], 36)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, map[string]any{"sku": "SKU-1"}, items[0])

	again, _ := doc.Example(contract.Operation{ID: "getOrder"}, nil)
	assert.Equal(t, resp, again, "synthesis is deterministic")
}

func TestExample_NoContent(t *testing.T) {
	doc := loadOrders(t)
	resp, ok := doc.Example(contract.Operation{ID: "DELETE /orders/{orderId}"}, nil)
	require.True(t, ok)
	assert.Equal(t, 204, resp.Status)
	assert.Nil(t, resp.Body)
}

func TestExample_NotDerivable(t *testing.T) {
	doc := loadOrders(t)
	_, ok := doc.Example(contract.Operation{ID: "getReport"}, nil)
	assert.False(t, ok)
	_, ok = doc.Example(contract.Operation{ID: "missing"}, nil)
	assert.False(t, ok)
}

func TestValidateRequest(t *testing.T) {
	doc := loadOrders(t)
	ctx := context.Background()
	create := contract.Operation{ID: "createOrder"}

	ok := doc.ValidateRequest(ctx, create, nil, &contract.Request{
		Method: "POST", Path: "/orders",
		Body: map[string]any{"sku": "A", "quantity": 2},
	})
	assert.True(t, ok.Valid, ok.Messages())

	bad := doc.ValidateRequest(ctx, create, nil, &contract.Request{
		Method: "POST", Path: "/orders",
		Body: map[string]any{"sku": "A"},
	})
	assert.False(t, bad.Valid)

	list := contract.Operation{ID: "listOrders"}
	badQuery := doc.ValidateRequest(ctx, list, nil, &contract.Request{
		Method: "GET", Path: "/orders", Query: map[string]string{"limit": "500"},
	})
	require.False(t, badQuery.Valid)
	assert.Equal(t, "limit", badQuery.Errors[0].Field)
}

func TestValidateResponse(t *testing.T) {
	doc := loadOrders(t)
	ctx := context.Background()
	get := contract.Operation{ID: "getOrder"}
	req := &contract.Request{Method: "GET", Path: "/orders/o-1"}
	params := map[string]string{"orderId": "o-1"}

	generated, ok := doc.Example(get, req)
	require.True(t, ok)
	result := doc.ValidateResponse(ctx, get, params, req, generated)
	assert.True(t, result.Valid, result.Messages())

	wrong := &contract.Response{Status: 200, Body: map[string]any{"id": "x"}}
	result = doc.ValidateResponse(ctx, get, params, req, wrong)
	assert.False(t, result.Valid)

	undeclared := &contract.Response{Status: 418}
	result = doc.ValidateResponse(ctx, get, params, req, undeclared)
	assert.False(t, result.Valid)
}
