// Package httpapi exposes the agents over HTTP: the /a2a envelope endpoint
// every agent serves, the discovery card, health, and the router's customer
// facing /query endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/dispatch"
	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/orchestrator"
)

// Card describes an agent for discovery via GET /agent_card.
type Card struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools,omitempty"`
	Protocol    string   `json:"a2a_protocol"`
}

// NewCard builds a Card with the mesh's wire protocol preset.
func NewCard(name, description string, tools ...string) Card {
	return Card{Name: name, Description: description, Tools: tools, Protocol: "REST_HTTP_JSON"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cardHandler(card Card) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, card)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewAgentMux builds the HTTP surface of a specialist agent: its dispatcher
// behind POST /a2a plus the card and health endpoints. Requests that are not
// even JSON get a 400; everything past decoding is answered with an envelope,
// including schema failures.
func NewAgentMux(d *dispatch.Dispatcher, card Card, logger logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /a2a", func(w http.ResponseWriter, r *http.Request) {
		var env a2a.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			logger.Warn("undecodable a2a request", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		writeJSON(w, http.StatusOK, d.Handle(r.Context(), env))
	})
	mux.HandleFunc("GET /agent_card", cardHandler(card))
	mux.HandleFunc("GET /health", healthHandler)
	return mux
}

// QueryRequest is the customer-facing router input.
type QueryRequest struct {
	CustomerID any    `json:"customer_id"`
	Text       string `json:"text"`
}

// QueryResponse wraps the ordered per-intent results. Status is always "ok"
// once the input passed validation; per-intent failures are flagged inside
// the entries.
type QueryResponse struct {
	Status  string                     `json:"status"`
	Results []orchestrator.ResultEntry `json:"results"`
}

// QueryHandler runs a customer query end to end. Satisfied by
// *orchestrator.Orchestrator.
type QueryHandler interface {
	HandleQuery(ctx context.Context, customerID any, text string) []orchestrator.ResultEntry
}

// NewRouterMux builds the router's HTTP surface: /query for customers, plus
// the same card, health and /a2a endpoints the specialists carry. The router
// has no intents of its own, so its /a2a answers every request with a plain
// acknowledgement envelope. A /query always answers 200 once the input is
// well formed; per-intent failures live inside the results.
func NewRouterMux(h QueryHandler, card Card, logger logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.CustomerID == nil || req.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id and text are required"})
			return
		}

		logger.Info("query received", "customer_id", req.CustomerID)
		writeJSON(w, http.StatusOK, QueryResponse{
			Status:  "ok",
			Results: h.HandleQuery(r.Context(), req.CustomerID, req.Text),
		})
	})
	mux.HandleFunc("POST /a2a", func(w http.ResponseWriter, r *http.Request) {
		var env a2a.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		reply := a2a.New("router_agent", env.From, env.Intent,
			map[string]any{"status": "ok"}, a2a.MessageTypeResponse, env.CorrelationID)
		writeJSON(w, http.StatusOK, reply)
	})
	mux.HandleFunc("GET /agent_card", cardHandler(card))
	mux.HandleFunc("GET /health", healthHandler)
	return mux
}
