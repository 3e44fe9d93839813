// Package agent registers the intent handlers of the two specialist agents
// on the shared dispatch loop. The customer data agent fronts the database
// tool host; the support agent handles tickets and actions and phrases its
// confirmations through the oracle.
package agent

import (
	"context"
	"fmt"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/connector"
	"github.com/ashhhwin/supportmesh/dispatch"
)

// DataAgentID is the mesh identity of the customer data agent.
const DataAgentID = "customer_data_agent"

// SupportAgentID is the mesh identity of the support agent.
const SupportAgentID = "support_agent"

// ToolInvoker calls one tool on the tool host. Satisfied by
// *connector.ToolSession.
type ToolInvoker interface {
	InvokeToolSync(ctx context.Context, name string, args map[string]any) connector.ToolResult
}

// RegisterDataHandlers binds the customer data intents to d. Each handler
// forwards to the matching database tool and returns the tool's decoded
// answer.
func RegisterDataHandlers(d *dispatch.Dispatcher, tools ToolInvoker) {
	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		return invoke(ctx, tools, "get_customer", customerIDOnly(payload))
	}, a2a.IntentGetCustomerInfo)

	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		return invoke(ctx, tools, "get_customer_history", customerIDOnly(payload))
	}, a2a.IntentGetCustomerHistory)

	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		return invoke(ctx, tools, "list_customers", payload)
	}, a2a.IntentListCustomers)

	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		email, _ := payload["email"].(string)
		if email == "" {
			return nil, fmt.Errorf("missing email")
		}
		return invoke(ctx, tools, "update_customer", map[string]any{
			"customer_id": payload["customer_id"],
			"data":        map[string]any{"email": email},
		})
	}, a2a.IntentUpdateEmail, "update_customer")
}

// customerIDOnly narrows a payload to the customer_id key the lookup tools
// expect, passing the payload through untouched when the key is absent.
func customerIDOnly(payload map[string]any) map[string]any {
	if id, ok := payload["customer_id"]; ok {
		return map[string]any{"customer_id": id}
	}
	return payload
}

func invoke(ctx context.Context, tools ToolInvoker, name string, args map[string]any) (any, error) {
	res := tools.InvokeToolSync(ctx, name, args)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data, nil
}
