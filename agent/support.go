package agent

import (
	"context"
	"fmt"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/dispatch"
)

// Phraser turns an action summary into a short customer-facing sentence.
// Satisfied by any oracle.Oracle.
type Phraser interface {
	Phrase(ctx context.Context, action string, details any, originalText string) (string, error)
}

// RegisterSupportHandlers binds the support intents to d. Action intents
// answer with a status map plus an answer_text sentence phrased by the
// oracle; when phrasing fails the sentence degrades to a canned
// confirmation so the action result still reaches the customer.
func RegisterSupportHandlers(d *dispatch.Dispatcher, tools ToolInvoker, phraser Phraser) {
	d.Register(cannedAction("General inquiry logged.", func() map[string]any {
		return map[string]any{"status": "ok"}
	}, phraser), a2a.IntentSupportRequest)

	d.Register(cannedAction("Refund initiated successfully.", func() map[string]any {
		return map[string]any{"status": "ok", "refund_id": "REF-998877"}
	}, phraser), a2a.IntentRefundRequest)

	d.Register(cannedAction("Subscription cancelled.", func() map[string]any {
		return map[string]any{"status": "ok"}
	}, phraser), a2a.IntentCancelSubscription)

	d.Register(cannedAction("Upgrade processed.", func() map[string]any {
		return map[string]any{"status": "ok"}
	}, phraser), a2a.IntentUpgradeRequest)

	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		return handleTicketStatus(ctx, tools, phraser, payload)
	}, a2a.IntentShowTicketStatus)

	d.Register(func(ctx context.Context, payload map[string]any) (any, error) {
		return handleEscalation(ctx, tools, phraser, payload)
	}, a2a.IntentEscalateIssue)
}

// cannedAction builds a handler for intents whose system action is immediate
// and whose result shape is fixed.
func cannedAction(action string, result func() map[string]any, phraser Phraser) dispatch.HandlerFunc {
	return func(ctx context.Context, payload map[string]any) (any, error) {
		text, _ := payload["text"].(string)
		data := result()
		data["answer_text"] = phraseOrCanned(ctx, phraser, action, data, text)
		return data, nil
	}
}

func handleTicketStatus(ctx context.Context, tools ToolInvoker, phraser Phraser, payload map[string]any) (any, error) {
	customerID, ok := payload["customer_id"]
	if !ok || customerID == nil {
		return nil, fmt.Errorf("missing customer_id")
	}
	text, _ := payload["text"].(string)

	res := tools.InvokeToolSync(ctx, "list_tickets", map[string]any{"customer_ids": []any{customerID}})
	if res.Err != nil {
		return nil, res.Err
	}

	action := "No tickets found."
	if tickets, ok := res.Data.([]any); ok && len(tickets) > 0 {
		action = fmt.Sprintf("Found %d tickets.", len(tickets))
	}
	return map[string]any{
		"data":        res.Data,
		"answer_text": phraseOrCanned(ctx, phraser, action, res.Data, text),
	}, nil
}

func handleEscalation(ctx context.Context, tools ToolInvoker, phraser Phraser, payload map[string]any) (any, error) {
	text, _ := payload["text"].(string)
	reason := text
	if entities, ok := payload["entities"].(map[string]any); ok {
		if r, ok := entities["reason"].(string); ok && r != "" {
			reason = r
		}
	}

	res := tools.InvokeToolSync(ctx, "create_ticket", map[string]any{
		"customer_id": payload["customer_id"],
		"issue":       reason,
		"priority":    "medium",
	})
	if res.Err != nil {
		return nil, res.Err
	}

	ticketID := any("unknown")
	ticket, _ := res.Data.(map[string]any)
	if ticket != nil {
		if id, ok := ticket["id"]; ok {
			ticketID = id
		}
		ticket["answer_text"] = phraseOrCanned(ctx, phraser,
			fmt.Sprintf("Escalation ticket #%v created.", ticketID), ticket, text)
		return ticket, nil
	}
	return map[string]any{
		"data":        res.Data,
		"answer_text": phraseOrCanned(ctx, phraser, fmt.Sprintf("Escalation ticket #%v created.", ticketID), res.Data, text),
	}, nil
}

// phraseOrCanned asks the oracle for a friendly sentence and degrades to a
// plain confirmation when the oracle is unavailable.
func phraseOrCanned(ctx context.Context, phraser Phraser, action string, details any, text string) string {
	if phraser != nil {
		if sentence, err := phraser.Phrase(ctx, action, details, text); err == nil && sentence != "" {
			return sentence
		}
	}
	return "Action processed: " + action
}
