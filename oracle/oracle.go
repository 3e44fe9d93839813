// Package oracle defines the language-model interface the mesh uses for
// intent classification and response phrasing, together with the prompt
// builders and the tolerant parsing of model output. Provider-specific
// implementations live in the subpackages oracle/openai and
// oracle/anthropic.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashhhwin/supportmesh/a2a"
)

// Classification is the structured result of running a customer utterance
// through the oracle: every intent the text expresses, the entities mentioned
// alongside them, and the model's short reasoning.
type Classification struct {
	Intents   []string       `json:"intents"`
	Entities  map[string]any `json:"entities"`
	Reasoning string         `json:"reasoning"`
}

// Oracle is the minimal language-model surface the mesh needs. Classify maps
// free text to intents and entities; Phrase turns a completed action into a
// short customer-facing sentence. Both are best effort: callers must be
// prepared to fall back when either returns an error.
type Oracle interface {
	Classify(ctx context.Context, text string) (*Classification, error)
	Phrase(ctx context.Context, action string, details any, originalText string) (string, error)
}

// ClassificationInstruction builds the system prompt for intent
// classification. The known intent vocabulary is enumerated inline so the
// model never has to guess at valid names.
func ClassificationInstruction() string {
	var b strings.Builder
	b.WriteString("You are an intent classifier for a customer support system.\n")
	b.WriteString("Classify the user's message into one or more of these intents:\n")
	for _, intent := range a2a.KnownIntents() {
		b.WriteString("- ")
		b.WriteString(intent)
		b.WriteString("\n")
	}
	b.WriteString("\nA single message may express several intents at once.\n")
	b.WriteString("Also extract any entities mentioned, such as customer_id, email, or status_filter.\n")
	b.WriteString("Respond with a JSON object of this exact shape:\n")
	b.WriteString(`{"intents": ["intent_name"], "entities": {}, "reasoning": "one short sentence"}`)
	return b.String()
}

// PhrasingInstruction builds the system prompt for turning action results
// into customer-facing replies.
func PhrasingInstruction() string {
	return "You are a helpful customer support agent. " +
		"Write one short, friendly sentence confirming the action that was taken for the customer. " +
		"Do not invent details that are not in the action summary. Respond with the sentence only."
}

// ParseClassification decodes a model reply into a Classification. The reply
// is run through ExtractJSON first so fenced or chatty output still parses.
// A reply with no intents is an error: the caller falls back to keyword
// classification rather than dispatching nothing.
func ParseClassification(raw string) (*Classification, error) {
	extracted, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("classification reply: %w", err)
	}

	var c Classification
	if err := json.Unmarshal([]byte(extracted), &c); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if len(c.Intents) == 0 {
		return nil, fmt.Errorf("classification reply contains no intents")
	}
	for i, intent := range c.Intents {
		c.Intents[i] = strings.ToLower(strings.TrimSpace(intent))
	}
	if c.Entities == nil {
		c.Entities = map[string]any{}
	}
	return &c, nil
}
