// Package a2a defines the agent-to-agent message envelope: construction,
// schema validation and error mirroring. Every message exchanged between
// agents in the mesh is one Envelope; a reply is always a new Envelope,
// never a mutation of the request.
package a2a

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType classifies an envelope as a request, a response or an error.
type MessageType string

const (
	// MessageTypeRequest marks an envelope carrying work for the receiver.
	MessageTypeRequest MessageType = "request"
	// MessageTypeResponse marks an envelope answering a request.
	MessageTypeResponse MessageType = "response"
	// MessageTypeError marks an envelope reporting a failure back to the
	// sender of the request it answers.
	MessageTypeError MessageType = "error"
)

// Intents is the ordered list of intent names an envelope carries. On the
// wire a single intent is encoded as a bare string and multiple intents as
// a list; both forms decode to the same slice, so receivers never need to
// care which form the sender chose.
type Intents []string

// NewIntents builds an Intents value from intent names.
func NewIntents(names ...string) Intents { return Intents(names) }

// MarshalJSON encodes a single intent as a string and multiple as a list.
func (i Intents) MarshalJSON() ([]byte, error) {
	if len(i) == 1 {
		return json.Marshal(i[0])
	}
	return json.Marshal([]string(i))
}

// UnmarshalJSON accepts either a bare string or a list of strings.
func (i *Intents) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*i = Intents{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*i = Intents(many)
	return nil
}

// Envelope is the structured message exchanged between agents. All seven
// required fields are set by New and must survive validation on receipt.
// The correlation id links a request to every response or error derived
// from it and is propagated unchanged across the exchange.
type Envelope struct {
	MessageID     string      `json:"message_id"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Type          MessageType `json:"type"`
	Intent        Intents     `json:"intent"`
	Payload       any         `json:"payload"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
}

// New constructs a compliant envelope. An empty correlationID is replaced
// with a fresh token so every request has a stable key even when the caller
// does not supply one; a nil payload becomes an empty object so the field
// is always present on the wire.
func New(from, to string, intent Intents, payload any, typ MessageType, correlationID string) Envelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return Envelope{
		MessageID:     uuid.NewString(),
		From:          from,
		To:            to,
		Type:          typ,
		Intent:        intent,
		Payload:       payload,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}
}

// NewRequest is shorthand for a request envelope with a generated
// correlation id.
func NewRequest(from, to string, intent Intents, payload any) Envelope {
	return New(from, to, intent, payload, MessageTypeRequest, "")
}

// SchemaError reports an envelope that is missing required fields. It lists
// every missing field, not just the first, so a sender can fix a malformed
// message in one round trip.
type SchemaError struct {
	Missing []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid a2a message, missing: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that all required envelope fields are present. It returns
// a *SchemaError enumerating every absent field, or nil when the envelope
// is well formed.
func (e Envelope) Validate() error {
	var missing []string
	if e.MessageID == "" {
		missing = append(missing, "message_id")
	}
	if e.From == "" {
		missing = append(missing, "from")
	}
	if e.To == "" {
		missing = append(missing, "to")
	}
	if e.Type == "" {
		missing = append(missing, "type")
	}
	if len(e.Intent) == 0 {
		missing = append(missing, "intent")
	}
	if e.Payload == nil {
		missing = append(missing, "payload")
	}
	if e.CorrelationID == "" {
		missing = append(missing, "correlation_id")
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// MirrorError builds the uniform error envelope answering original: sender
// and receiver are swapped, intent and correlation id are propagated, and
// the payload carries the failure text under the "error" key. Handlers must
// surface failures through this shape and never hand-roll error payloads.
func MirrorError(original Envelope, errText string) Envelope {
	return New(
		original.To,
		original.From,
		original.Intent,
		map[string]any{"error": errText},
		MessageTypeError,
		original.CorrelationID,
	)
}
