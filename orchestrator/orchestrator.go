// Package orchestrator implements the router agent's core: classify a
// customer query, map each intent to a specialist task, dispatch the tasks
// concurrently, and aggregate the replies into an ordered result list. One
// failing specialist never hides the answers of the others.
package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/connector"
	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/oracle"
)

// IntentClassifier resolves customer text to intents and entities. Satisfied
// by *classify.Classifier.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) *oracle.Classification
}

// PeerSender carries an envelope to a peer agent. Satisfied by
// *connector.Connector.
type PeerSender interface {
	SendToPeer(ctx context.Context, targetURL string, env a2a.Envelope) connector.PeerResult
}

// Task is one unit of specialist work derived from a classified intent.
// RequiresEscalation is decided here, at routing time, from a static intent
// table; specialists never override it.
type Task struct {
	Intent             string
	TargetAgent        string
	TargetURL          string
	Payload            map[string]any
	RequiresEscalation bool
}

// ResultEntry is the per-intent outcome returned to the caller. Entries keep
// the order of the classified intents regardless of which specialist
// answered first.
type ResultEntry struct {
	Intent             string `json:"intent"`
	Status             string `json:"status"`
	Data               any    `json:"data"`
	RequiresEscalation bool   `json:"requires_escalation"`
}

// Options configure an Orchestrator.
type Options struct {
	AgentID         string
	DataAgentURL    string
	SupportAgentURL string
	Logger          logging.Logger
}

// Orchestrator is the router agent's brain.
type Orchestrator struct {
	classifier IntentClassifier
	sender     PeerSender
	opts       Options
	builders   map[string]taskBuilder
}

type taskBuilder func(o *Orchestrator, customerID any, text string, entities map[string]any) Task

// escalationIntents marks which intents flag the result for human follow-up.
var escalationIntents = map[string]bool{
	a2a.IntentUpdateEmail:        true,
	a2a.IntentRefundRequest:      true,
	a2a.IntentCancelSubscription: true,
	a2a.IntentUpgradeRequest:     true,
	a2a.IntentEscalateIssue:      true,
}

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

// New creates an Orchestrator.
func New(classifier IntentClassifier, sender PeerSender, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		AgentID:         "router_agent",
		DataAgentURL:    "http://localhost:8101",
		SupportAgentURL: "http://localhost:8102",
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{classifier: classifier, sender: sender, opts: opts}
	o.builders = map[string]taskBuilder{
		a2a.IntentGetCustomerInfo:    buildCustomerLookup(a2a.IntentGetCustomerInfo),
		a2a.IntentGetCustomerHistory: buildCustomerLookup(a2a.IntentGetCustomerHistory),
		a2a.IntentUpdateEmail:        buildUpdateEmail,
		a2a.IntentListCustomers:      buildListCustomers,
	}
	return o
}

// WithAgentID sets the identity the orchestrator sends envelopes as.
func WithAgentID(id string) func(o *Options) {
	return func(o *Options) { o.AgentID = id }
}

// WithDataAgentURL sets the customer data agent endpoint.
func WithDataAgentURL(url string) func(o *Options) {
	return func(o *Options) { o.DataAgentURL = url }
}

// WithSupportAgentURL sets the support agent endpoint.
func WithSupportAgentURL(url string) func(o *Options) {
	return func(o *Options) { o.SupportAgentURL = url }
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// HandleQuery runs the full pipeline for one customer query: classify,
// route, dispatch concurrently, aggregate in intent order.
func (o *Orchestrator) HandleQuery(ctx context.Context, customerID any, text string) []ResultEntry {
	classification := o.classifier.Classify(ctx, text)
	if classification == nil || len(classification.Intents) == 0 {
		return []ResultEntry{}
	}

	o.opts.Logger.Info("query classified",
		"intents", classification.Intents, "reasoning", classification.Reasoning)

	tasks := make([]Task, len(classification.Intents))
	for i, intent := range classification.Intents {
		tasks[i] = o.RouteIntent(intent, customerID, text, classification.Entities)
	}

	results := make([]ResultEntry, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			results[i] = o.dispatch(ctx, task)
		}(i, task)
	}
	wg.Wait()

	return results
}

// RouteIntent maps one classified intent to a specialist task. Data lookups
// go to the customer data agent; everything else, including intents nobody
// recognized, lands on the support agent.
func (o *Orchestrator) RouteIntent(intent string, customerID any, text string, entities map[string]any) Task {
	if entities == nil {
		entities = map[string]any{}
	}
	if builder, ok := o.builders[intent]; ok {
		task := builder(o, customerID, text, entities)
		task.TargetAgent = "customer_data_agent"
		task.TargetURL = o.opts.DataAgentURL
		task.RequiresEscalation = escalationIntents[intent]
		return task
	}
	return Task{
		Intent:      intent,
		TargetAgent: "support_agent",
		TargetURL:   o.opts.SupportAgentURL,
		Payload: map[string]any{
			"customer_id": customerID,
			"text":        text,
			"entities":    entities,
		},
		RequiresEscalation: escalationIntents[intent],
	}
}

func buildCustomerLookup(intent string) taskBuilder {
	return func(o *Orchestrator, customerID any, text string, entities map[string]any) Task {
		return Task{
			Intent:  intent,
			Payload: map[string]any{"customer_id": customerID},
		}
	}
}

// buildUpdateEmail prefers the address the classifier extracted and falls
// back to scanning the raw text.
func buildUpdateEmail(o *Orchestrator, customerID any, text string, entities map[string]any) Task {
	email, _ := entities["email"].(string)
	if email == "" {
		email = emailPattern.FindString(text)
	}
	return Task{
		Intent: a2a.IntentUpdateEmail,
		Payload: map[string]any{
			"customer_id": customerID,
			"email":       email,
		},
	}
}

// buildListCustomers resolves the status filter: the classifier's
// status_filter entity wins, otherwise the text is scanned for a known
// status word. An unrecognized filter is dropped rather than passed on.
func buildListCustomers(o *Orchestrator, customerID any, text string, entities map[string]any) Task {
	filter, _ := entities["status_filter"].(string)
	if filter == "" {
		lowered := strings.ToLower(text)
		for _, status := range []string{"active", "disabled"} {
			if strings.Contains(lowered, status) {
				filter = status
				break
			}
		}
	}
	filter = strings.ToLower(strings.TrimSpace(filter))

	payload := map[string]any{}
	if filter == "active" || filter == "disabled" {
		payload["status"] = filter
	}
	return Task{Intent: a2a.IntentListCustomers, Payload: payload}
}

// dispatch sends one task and unwraps the reply into a ResultEntry.
func (o *Orchestrator) dispatch(ctx context.Context, task Task) ResultEntry {
	env := a2a.NewRequest(o.opts.AgentID, task.TargetAgent, a2a.NewIntents(task.Intent), task.Payload)
	res := o.sender.SendToPeer(ctx, task.TargetURL, env)

	entry := o.unwrap(task.Intent, res)
	entry.RequiresEscalation = task.RequiresEscalation
	return entry
}

// unwrap flattens a peer reply into a ResultEntry. Specialists answer with a
// list of per-intent entries; since every task carries exactly one intent,
// the first element is the answer.
func (o *Orchestrator) unwrap(intent string, res connector.PeerResult) ResultEntry {
	if res.Err != nil || res.Envelope == nil {
		errText := "no response"
		if res.Err != nil {
			errText = res.Err.Error()
		}
		o.opts.Logger.Error("specialist dispatch failed", "intent", intent, "error", errText)
		return ResultEntry{Intent: intent, Status: "error", Data: errText}
	}

	reply := res.Envelope
	if reply.Type == a2a.MessageTypeError {
		data := reply.Payload
		if m, ok := reply.Payload.(map[string]any); ok {
			data = m["error"]
		}
		return ResultEntry{Intent: intent, Status: "error", Data: data}
	}

	switch payload := reply.Payload.(type) {
	case []any:
		if len(payload) == 0 {
			return ResultEntry{Intent: intent, Status: "ok"}
		}
		first := payload[0]
		status := "ok"
		if m, ok := first.(map[string]any); ok {
			if s, ok := m["status"].(string); ok {
				status = s
			}
		}
		return ResultEntry{Intent: intent, Status: status, Data: first}
	default:
		status := "unknown"
		if m, ok := payload.(map[string]any); ok {
			if s, ok := m["status"].(string); ok {
				status = s
			}
		}
		return ResultEntry{Intent: intent, Status: status, Data: payload}
	}
}
