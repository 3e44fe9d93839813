package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/connector"
	"github.com/ashhhwin/supportmesh/dispatch"
)

// fakeTools answers tool calls from a canned table and records what was
// asked.
type fakeTools struct {
	results  map[string]connector.ToolResult
	lastName string
	lastArgs map[string]any
}

func (f *fakeTools) InvokeToolSync(ctx context.Context, name string, args map[string]any) connector.ToolResult {
	f.lastName = name
	f.lastArgs = args
	if res, ok := f.results[name]; ok {
		return res
	}
	return connector.ToolResult{Status: "error", Err: fmt.Errorf("unexpected tool: %s", name)}
}

type fakePhraser struct {
	reply string
	err   error
}

func (f *fakePhraser) Phrase(ctx context.Context, action string, details any, originalText string) (string, error) {
	return f.reply, f.err
}

func handleOne(t *testing.T, d *dispatch.Dispatcher, intent string, payload map[string]any) map[string]any {
	t.Helper()
	req := a2a.NewRequest("router_agent", d.AgentID(), a2a.NewIntents(intent), payload)
	resp := d.Handle(context.Background(), req)

	results, ok := resp.Payload.([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	entry, ok := results[0].(map[string]any)
	require.True(t, ok)
	return entry
}

func TestDataAgentGetCustomerInfo(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"get_customer": {Status: "success", Data: map[string]any{"id": float64(1), "name": "Alice Johnson", "status": "active"}},
	}}
	d := dispatch.New(DataAgentID)
	RegisterDataHandlers(d, tools)

	entry := handleOne(t, d, a2a.IntentGetCustomerInfo, map[string]any{"customer_id": 1, "text": "who is customer 1"})
	assert.Equal(t, "Alice Johnson", entry["name"])
	assert.Equal(t, "get_customer", tools.lastName)
	// extra payload keys are stripped before the tool call
	assert.Equal(t, map[string]any{"customer_id": 1}, tools.lastArgs)
}

func TestDataAgentUpdateEmail(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"update_customer": {Status: "success", Data: map[string]any{"status": "updated"}},
	}}
	d := dispatch.New(DataAgentID)
	RegisterDataHandlers(d, tools)

	entry := handleOne(t, d, a2a.IntentUpdateEmail, map[string]any{"customer_id": 2, "email": "new@example.com"})
	assert.Equal(t, "updated", entry["status"])
	assert.Equal(t, map[string]any{
		"customer_id": 2,
		"data":        map[string]any{"email": "new@example.com"},
	}, tools.lastArgs)
}

func TestDataAgentUpdateEmailMissingAddress(t *testing.T) {
	d := dispatch.New(DataAgentID)
	RegisterDataHandlers(d, &fakeTools{})

	entry := handleOne(t, d, a2a.IntentUpdateEmail, map[string]any{"customer_id": 2})
	assert.Equal(t, "error", entry["status"])
	assert.Contains(t, entry["error"], "missing email")
}

func TestDataAgentToolFailure(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"get_customer": {Status: "error", Err: fmt.Errorf("tool host unavailable")},
	}}
	d := dispatch.New(DataAgentID)
	RegisterDataHandlers(d, tools)

	entry := handleOne(t, d, a2a.IntentGetCustomerInfo, map[string]any{"customer_id": 1})
	assert.Equal(t, "error", entry["status"])
	assert.Contains(t, entry["error"], "unavailable")
}

func TestSupportAgentRefund(t *testing.T) {
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, &fakeTools{}, &fakePhraser{reply: "Your refund is on its way!"})

	entry := handleOne(t, d, a2a.IntentRefundRequest, map[string]any{"customer_id": 2, "text": "I want my money back"})
	assert.Equal(t, "ok", entry["status"])
	assert.Equal(t, "REF-998877", entry["refund_id"])
	assert.Equal(t, "Your refund is on its way!", entry["answer_text"])
}

func TestSupportAgentPhrasingDegradesToCanned(t *testing.T) {
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, &fakeTools{}, &fakePhraser{err: fmt.Errorf("oracle down")})

	entry := handleOne(t, d, a2a.IntentCancelSubscription, map[string]any{"customer_id": 2, "text": "cancel it"})
	assert.Equal(t, "ok", entry["status"])
	assert.Equal(t, "Action processed: Subscription cancelled.", entry["answer_text"])
}

func TestSupportAgentTicketStatus(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"list_tickets": {Status: "success", Data: []any{
			map[string]any{"id": float64(1), "status": "open"},
			map[string]any{"id": float64(2), "status": "resolved"},
		}},
	}}
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, tools, &fakePhraser{reply: "You have 2 tickets."})

	entry := handleOne(t, d, a2a.IntentShowTicketStatus, map[string]any{"customer_id": 1, "text": "ticket status"})
	assert.Equal(t, "list_tickets", tools.lastName)
	assert.Equal(t, map[string]any{"customer_ids": []any{1}}, tools.lastArgs)

	data, ok := entry["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
	assert.Equal(t, "You have 2 tickets.", entry["answer_text"])
}

func TestSupportAgentTicketStatusMissingCustomer(t *testing.T) {
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, &fakeTools{}, &fakePhraser{})

	entry := handleOne(t, d, a2a.IntentShowTicketStatus, map[string]any{"text": "ticket status"})
	assert.Equal(t, "error", entry["status"])
	assert.Contains(t, entry["error"], "customer_id")
}

func TestSupportAgentEscalation(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"create_ticket": {Status: "success", Data: map[string]any{"id": float64(42), "status": "open"}},
	}}
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, tools, &fakePhraser{reply: "Ticket 42 opened for you."})

	entry := handleOne(t, d, a2a.IntentEscalateIssue, map[string]any{
		"customer_id": 3,
		"text":        "this is broken, escalate",
		"entities":    map[string]any{"reason": "billing dispute"},
	})
	assert.Equal(t, "create_ticket", tools.lastName)
	assert.Equal(t, "billing dispute", tools.lastArgs["issue"])
	assert.Equal(t, "medium", tools.lastArgs["priority"])
	assert.Equal(t, float64(42), entry["id"])
	assert.Equal(t, "Ticket 42 opened for you.", entry["answer_text"])
}

func TestSupportAgentEscalationReasonFallsBackToText(t *testing.T) {
	tools := &fakeTools{results: map[string]connector.ToolResult{
		"create_ticket": {Status: "success", Data: map[string]any{"id": float64(7)}},
	}}
	d := dispatch.New(SupportAgentID)
	RegisterSupportHandlers(d, tools, &fakePhraser{})

	handleOne(t, d, a2a.IntentEscalateIssue, map[string]any{"customer_id": 3, "text": "please escalate this"})
	assert.Equal(t, "please escalate this", tools.lastArgs["issue"])
}
