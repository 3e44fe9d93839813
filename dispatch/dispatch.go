// Package dispatch implements the request-handling loop shared by every
// specialist agent: validate the incoming envelope, run one handler per
// intent concurrently, and fold the results into a single response envelope.
// A handler failure never sinks the other intents in the same request.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/logging"
)

// HandlerFunc processes one intent's payload and returns the result value
// placed in the response.
type HandlerFunc func(ctx context.Context, payload map[string]any) (any, error)

// Options configure a Dispatcher.
type Options struct {
	Logger logging.Logger
}

// Dispatcher routes incoming request envelopes to intent handlers for one
// agent.
type Dispatcher struct {
	agentID  string
	handlers map[string]HandlerFunc
	opts     Options
}

// New creates a Dispatcher for the agent identified by agentID.
func New(agentID string, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		agentID:  agentID,
		handlers: map[string]HandlerFunc{},
		opts:     opts,
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Register binds fn to one or more intent names. Registering the same intent
// twice replaces the earlier handler.
func (d *Dispatcher) Register(fn HandlerFunc, intents ...string) {
	for _, intent := range intents {
		d.handlers[intent] = fn
	}
}

// AgentID returns the identity this dispatcher answers as.
func (d *Dispatcher) AgentID() string { return d.agentID }

// Handle processes a request envelope and always returns a reply envelope.
// A malformed request gets a mirrored error envelope; otherwise every intent
// runs in its own goroutine and the response payload lists one entry per
// intent in request order. Handler errors and unknown intents become tagged
// error entries rather than failing the whole request.
func (d *Dispatcher) Handle(ctx context.Context, env a2a.Envelope) a2a.Envelope {
	if err := env.Validate(); err != nil {
		d.opts.Logger.Warn("rejecting malformed request", "error", err)
		return a2a.MirrorError(env, err.Error())
	}

	payload, _ := env.Payload.(map[string]any)
	if payload == nil {
		payload = map[string]any{}
	}

	results := make([]any, len(env.Intent))
	var wg sync.WaitGroup
	for i, intent := range env.Intent {
		wg.Add(1)
		go func(i int, intent string) {
			defer wg.Done()
			results[i] = d.runHandler(ctx, intent, payload)
		}(i, intent)
	}
	wg.Wait()

	return a2a.New(
		d.agentID,
		env.From,
		env.Intent,
		results,
		a2a.MessageTypeResponse,
		env.CorrelationID,
	)
}

// runHandler executes one intent's handler and folds failures into tagged
// error entries.
func (d *Dispatcher) runHandler(ctx context.Context, intent string, payload map[string]any) any {
	fn, ok := d.handlers[intent]
	if !ok {
		d.opts.Logger.Warn("no handler for intent", "intent", intent, "agent", d.agentID)
		return map[string]any{
			"status": "error",
			"intent": intent,
			"error":  fmt.Sprintf("unknown intent: %s", intent),
		}
	}

	result, err := fn(ctx, payload)
	if err != nil {
		d.opts.Logger.Error("handler failed", "intent", intent, "agent", d.agentID, "error", err)
		return map[string]any{
			"status": "error",
			"intent": intent,
			"error":  err.Error(),
		}
	}
	return result
}
