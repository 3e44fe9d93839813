package toolhost

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer builds the MCP server exposing the store's operations as tools.
// Tool-level failures are reported as tool error results, never as protocol
// errors, so one bad call does not tear down the stdio session.
func NewServer(store *Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"supportmesh-toolhost",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("get_customer",
		mcp.WithDescription("Retrieves a customer by their ID."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("Customer ID to look up")),
	), handleGetCustomer(store))

	s.AddTool(mcp.NewTool("list_customers",
		mcp.WithDescription("Lists customers with optional filters for status or tier."),
		mcp.WithString("status", mcp.Description("Filter by status: active or disabled")),
		mcp.WithString("tier", mcp.Description("Filter by tier: standard, premium or enterprise")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of customers to return")),
	), handleListCustomers(store))

	s.AddTool(mcp.NewTool("update_customer",
		mcp.WithDescription("Updates customer details (email, tier, billing_info)."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("Customer ID to update")),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Fields to change")),
	), handleUpdateCustomer(store))

	s.AddTool(mcp.NewTool("create_ticket",
		mcp.WithDescription("Creates a support ticket for a customer."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("Customer the ticket belongs to")),
		mcp.WithString("issue", mcp.Required(), mcp.Description("Issue description")),
		mcp.WithString("priority", mcp.Required(), mcp.Description("Ticket priority: low, medium or high")),
	), handleCreateTicket(store))

	s.AddTool(mcp.NewTool("get_customer_history",
		mcp.WithDescription("Retrieves ticket history for a specific customer."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("Customer ID to look up")),
	), handleCustomerHistory(store))

	s.AddTool(mcp.NewTool("list_tickets",
		mcp.WithDescription("Lists tickets for specific customers with optional filters."),
		mcp.WithArray("customer_ids", mcp.Required(), mcp.Description("Customer IDs to list tickets for")),
		mcp.WithString("status", mcp.Description("Filter by ticket status: open, in_progress or resolved")),
		mcp.WithString("priority", mcp.Description("Filter by priority: low, medium or high")),
	), handleListTickets(store))

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// normalized lowercases a vocabulary argument so callers sending "Active" or
// "HIGH" still match the stored values.
func normalized(req mcp.CallToolRequest, key string) string {
	return strings.ToLower(strings.TrimSpace(req.GetString(key, "")))
}

func handleGetCustomer(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("customer_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		customer, err := store.GetCustomer(ctx, int64(id))
		if errors.Is(err, ErrNotFound) {
			// a missing customer is an answer, not a failure
			return mcp.NewToolResultText("null"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(customer)
	}
}

func handleListCustomers(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := normalized(req, "status")
		if status != "" && !oneOf(status, customerStatuses) {
			status = ""
		}
		tier := normalized(req, "tier")
		if tier != "" && !oneOf(tier, customerTiers) {
			tier = ""
		}
		limit := req.GetInt("limit", 10)

		customers, err := store.ListCustomers(ctx, status, tier, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(customers)
	}
}

func handleUpdateCustomer(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("customer_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := req.GetArguments()
		data, _ := args["data"].(map[string]any)
		if data == nil {
			return mcp.NewToolResultError("missing data object"), nil
		}
		for _, key := range []string{"status", "tier"} {
			if v, ok := data[key].(string); ok {
				data[key] = strings.ToLower(strings.TrimSpace(v))
			}
		}

		customer, err := store.UpdateCustomer(ctx, int64(id), data)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(customer)
	}
}

func handleCreateTicket(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("customer_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		issue, err := req.RequireString("issue")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ticket, err := store.CreateTicket(ctx, int64(id), issue, normalized(req, "priority"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(ticket)
	}
}

func handleCustomerHistory(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("customer_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		history, err := store.GetCustomerHistory(ctx, int64(id))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(history)
	}
}

func handleListTickets(store *Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		rawIDs, _ := args["customer_ids"].([]any)

		ids := make([]int64, 0, len(rawIDs))
		for _, raw := range rawIDs {
			switch v := raw.(type) {
			case float64:
				ids = append(ids, int64(v))
			case int:
				ids = append(ids, int64(v))
			case int64:
				ids = append(ids, v)
			}
		}

		tickets, err := store.ListTickets(ctx, ids, normalized(req, "status"), normalized(req, "priority"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(tickets)
	}
}
