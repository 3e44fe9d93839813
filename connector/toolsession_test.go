package connector

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToolClient struct {
	initErr   error
	callErr   error
	reply     string
	isError   bool
	noContent bool
	inits    atomic.Int32
	calls    atomic.Int32
	closes   atomic.Int32
	lastName string
	lastArgs map[string]any
}

func (f *fakeToolClient) Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	f.inits.Add(1)
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeToolClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.calls.Add(1)
	f.lastName = req.Params.Name
	f.lastArgs, _ = req.Params.Arguments.(map[string]any)
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.noContent {
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	}
	return &mcp.CallToolResult{
		IsError: f.isError,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: f.reply}},
	}, nil
}

func (f *fakeToolClient) Close() error {
	f.closes.Add(1)
	return nil
}

func newFakeSession(fake *fakeToolClient) *ToolSession {
	return NewToolSession("unused", nil, func(o *SessionOptions) {
		o.newClient = func() (toolClient, error) { return fake, nil }
	})
}

func TestInvokeToolSyncDecodesJSON(t *testing.T) {
	fake := &fakeToolClient{reply: `{"id": 1, "name": "Alice Johnson", "status": "active"}`}
	sess := newFakeSession(fake)

	res := sess.InvokeToolSync(context.Background(), "get_customer", map[string]any{"customer_id": 1})
	require.NoError(t, res.Err)
	assert.Equal(t, "success", res.Status)

	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice Johnson", data["name"])
	assert.Equal(t, "get_customer", fake.lastName)
	assert.Equal(t, map[string]any{"customer_id": 1}, fake.lastArgs)
}

func TestInvokeToolSyncRawTextFallback(t *testing.T) {
	fake := &fakeToolClient{reply: "customer not found"}
	sess := newFakeSession(fake)

	res := sess.InvokeToolSync(context.Background(), "get_customer", map[string]any{"customer_id": 99})
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "customer not found", res.Data)
}

func TestInvokeToolSyncSessionReusedAcrossCalls(t *testing.T) {
	fake := &fakeToolClient{reply: `[]`}
	sess := newFakeSession(fake)

	for range 3 {
		res := sess.InvokeToolSync(context.Background(), "list_tickets", nil)
		require.Equal(t, "success", res.Status)
	}
	assert.Equal(t, int32(1), fake.inits.Load())
	assert.Equal(t, int32(3), fake.calls.Load())
}

func TestInvokeToolSyncTeardownOnCallError(t *testing.T) {
	fake := &fakeToolClient{callErr: fmt.Errorf("pipe closed")}
	sess := newFakeSession(fake)

	res := sess.InvokeToolSync(context.Background(), "get_customer", nil)
	assert.Equal(t, "error", res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, int32(1), fake.closes.Load())

	// next call respawns the session
	fake.callErr = nil
	fake.reply = `{}`
	res = sess.InvokeToolSync(context.Background(), "get_customer", nil)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, int32(2), fake.inits.Load())
}

func TestInvokeToolSyncToolReportedError(t *testing.T) {
	fake := &fakeToolClient{reply: "invalid status value", isError: true}
	sess := newFakeSession(fake)

	res := sess.InvokeToolSync(context.Background(), "update_customer", map[string]any{"status": "frozen"})
	assert.Equal(t, "error", res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, "invalid status value", res.Data)
	// a tool-level error keeps the session alive
	assert.Equal(t, int32(0), fake.closes.Load())
}

func TestInvokeToolSyncNoTextContent(t *testing.T) {
	fake := &fakeToolClient{noContent: true}
	sess := newFakeSession(fake)

	res := sess.InvokeToolSync(context.Background(), "get_customer", nil)
	assert.Equal(t, "error", res.Status)
	assert.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no text content")
}

func TestInvokeToolAsync(t *testing.T) {
	fake := &fakeToolClient{reply: `{"ok": true}`}
	sess := newFakeSession(fake)

	res := <-sess.InvokeTool(context.Background(), "get_customer", nil)
	assert.Equal(t, "success", res.Status)
}

func TestCloseIdleSession(t *testing.T) {
	sess := newFakeSession(&fakeToolClient{})
	assert.NoError(t, sess.Close())
}
