package toolhost

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleGetCustomer(t *testing.T) {
	store := newTestStore(t)
	handler := handleGetCustomer(store)

	res, err := handler(context.Background(), callRequest("get_customer", map[string]any{"customer_id": float64(1)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var c Customer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &c))
	assert.Equal(t, "Alice Johnson", c.Name)
}

func TestHandleGetCustomerMissingAnswersNull(t *testing.T) {
	store := newTestStore(t)
	handler := handleGetCustomer(store)

	res, err := handler(context.Background(), callRequest("get_customer", map[string]any{"customer_id": float64(9999)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "null", resultText(t, res))
}

func TestHandleListCustomersNormalizesFilter(t *testing.T) {
	store := newTestStore(t)
	handler := handleListCustomers(store)

	res, err := handler(context.Background(), callRequest("list_customers", map[string]any{"status": " Disabled ", "limit": float64(0)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var customers []Customer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &customers))
	require.Len(t, customers, 2)
	for _, c := range customers {
		assert.Equal(t, "disabled", c.Status)
	}
}

func TestHandleListCustomersDropsUnknownFilter(t *testing.T) {
	store := newTestStore(t)
	handler := handleListCustomers(store)

	res, err := handler(context.Background(), callRequest("list_customers", map[string]any{"status": "frozen", "limit": float64(0)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var customers []Customer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &customers))
	assert.Len(t, customers, 8)
}

func TestHandleUpdateCustomer(t *testing.T) {
	store := newTestStore(t)
	handler := handleUpdateCustomer(store)

	res, err := handler(context.Background(), callRequest("update_customer", map[string]any{
		"customer_id": float64(2),
		"data":        map[string]any{"tier": "Premium"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var c Customer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &c))
	assert.Equal(t, "premium", c.Tier)
}

func TestHandleUpdateCustomerBadField(t *testing.T) {
	store := newTestStore(t)
	handler := handleUpdateCustomer(store)

	res, err := handler(context.Background(), callRequest("update_customer", map[string]any{
		"customer_id": float64(2),
		"data":        map[string]any{"password": "hunter2"},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleListTickets(t *testing.T) {
	store := newTestStore(t)
	handler := handleListTickets(store)

	res, err := handler(context.Background(), callRequest("list_tickets", map[string]any{
		"customer_ids": []any{float64(1)},
		"priority":     "HIGH",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var tickets []Ticket
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, "high", tickets[0].Priority)
}

func TestHandleCreateTicket(t *testing.T) {
	store := newTestStore(t)
	handler := handleCreateTicket(store)

	res, err := handler(context.Background(), callRequest("create_ticket", map[string]any{
		"customer_id": float64(4),
		"issue":       "invoice missing",
		"priority":    "Medium",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var ticket Ticket
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &ticket))
	assert.Equal(t, "medium", ticket.Priority)
	assert.Equal(t, "open", ticket.Status)
}
