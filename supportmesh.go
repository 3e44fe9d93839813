// Package supportmesh provides a high-level façade over the mesh's building
// blocks (oracle, classifier, connector, orchestrator, dispatchers) enabling
// rapid construction of the customer support agent mesh. Most applications
// interact with this package by:
//  1. Loading a config.Config
//  2. Creating a Mesh via New()
//  3. Mounting the HTTP muxes (Router, DataAgent, SupportAgent) or calling
//     Query directly
//
// All defaults are safe for local development: without an API key the
// classifier degrades to keyword matching and the support agent to canned
// confirmations.
package supportmesh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ashhhwin/supportmesh/agent"
	"github.com/ashhhwin/supportmesh/classify"
	"github.com/ashhhwin/supportmesh/config"
	"github.com/ashhhwin/supportmesh/connector"
	"github.com/ashhhwin/supportmesh/dispatch"
	"github.com/ashhhwin/supportmesh/httpapi"
	"github.com/ashhhwin/supportmesh/logging"
	"github.com/ashhhwin/supportmesh/oracle"
	"github.com/ashhhwin/supportmesh/oracle/anthropic"
	"github.com/ashhhwin/supportmesh/oracle/openai"
	"github.com/ashhhwin/supportmesh/orchestrator"
)

// Options configure the Mesh beyond what config carries.
type Options struct {
	// Logger defaults to a structured logger built from cfg.Log.
	Logger logging.Logger
	// Oracle overrides the provider selected by cfg.Oracle.Provider.
	Oracle oracle.Oracle
}

// Mesh aggregates every component of the support mesh for one process. A
// process typically serves a single role (router, data agent, support agent)
// but the Mesh carries all three so tests and single-binary setups can run
// the whole system in-process.
type Mesh struct {
	cfg    *config.Config
	logger logging.Logger

	oracle       oracle.Oracle
	classifier   *classify.Classifier
	conn         *connector.Connector
	tools        *connector.ToolSession
	orchestrator *orchestrator.Orchestrator
}

// New wires a Mesh from configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	}

	llm := opts.Oracle
	if llm == nil {
		var err error
		llm, err = buildOracle(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	classifier := classify.New(llm, classify.WithLogger(logger))

	conn := connector.New(
		connector.WithTimeout(cfg.Peer.Timeout),
		connector.WithMaxAttempts(cfg.Peer.MaxAttempts),
		connector.WithRetryDelay(cfg.Peer.RetryDelay),
		connector.WithLogger(logger),
	)

	tools := connector.NewToolSession(cfg.ToolHost.Command, cfg.ToolHost.Args,
		connector.WithCallTimeout(cfg.ToolHost.CallTimeout),
		connector.WithSessionLogger(logger),
	)

	orch := orchestrator.New(classifier, conn,
		orchestrator.WithDataAgentURL(cfg.Agents.DataAgentURL),
		orchestrator.WithSupportAgentURL(cfg.Agents.SupportAgentURL),
		orchestrator.WithLogger(logger),
	)

	return &Mesh{
		cfg:          cfg,
		logger:       logger,
		oracle:       llm,
		classifier:   classifier,
		conn:         conn,
		tools:        tools,
		orchestrator: orch,
	}, nil
}

// buildOracle selects the provider from config. Provider "none" disables the
// oracle entirely; classification then runs on keywords and the support
// agent answers with canned confirmations.
func buildOracle(cfg *config.Config, logger logging.Logger) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "openai", "":
		return openai.New(func(o *openai.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = cfg.Oracle.Model
			}
			o.BaseURL = cfg.Oracle.BaseURL
			o.APIKey = cfg.Oracle.APIKey
			if cfg.Oracle.RetryDelay > 0 {
				o.RetryDelay = cfg.Oracle.RetryDelay
			}
			o.Logger = logger
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = cfg.Oracle.Model
			}
			o.APIKey = cfg.Oracle.APIKey
			o.Logger = logger
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Oracle.Provider)
	}
}

// Logger returns the mesh logger.
func (m *Mesh) Logger() logging.Logger { return m.logger }

// Oracle returns the configured oracle; nil when provider is "none".
func (m *Mesh) Oracle() oracle.Oracle { return m.oracle }

// Tools returns the shared tool host session.
func (m *Mesh) Tools() *connector.ToolSession { return m.tools }

// Query runs one customer query through the orchestrator.
func (m *Mesh) Query(ctx context.Context, customerID any, text string) []orchestrator.ResultEntry {
	return m.orchestrator.HandleQuery(ctx, customerID, text)
}

// Router builds the router agent's HTTP surface.
func (m *Mesh) Router() *http.ServeMux {
	card := httpapi.NewCard("Router Agent",
		"Classifies customer queries and orchestrates specialist agents.")
	return httpapi.NewRouterMux(m.orchestrator, card, m.logger)
}

// DataAgent builds the customer data agent's HTTP surface.
func (m *Mesh) DataAgent() *http.ServeMux {
	d := dispatch.New(agent.DataAgentID, dispatch.WithLogger(m.logger))
	agent.RegisterDataHandlers(d, m.tools)
	card := httpapi.NewCard("Customer Data Agent",
		"Accesses the customer database through the tool host.",
		"get_customer", "list_customers", "update_customer", "get_customer_history")
	return httpapi.NewAgentMux(d, card, m.logger)
}

// SupportAgent builds the support agent's HTTP surface.
func (m *Mesh) SupportAgent() *http.ServeMux {
	d := dispatch.New(agent.SupportAgentID, dispatch.WithLogger(m.logger))
	var phraser agent.Phraser
	if m.oracle != nil {
		phraser = m.oracle
	}
	agent.RegisterSupportHandlers(d, m.tools, phraser)
	card := httpapi.NewCard("Support Agent",
		"Handles tickets and support actions, phrasing replies through the oracle.",
		"create_ticket", "list_tickets")
	return httpapi.NewAgentMux(d, card, m.logger)
}

// Close releases the tool host session.
func (m *Mesh) Close() error {
	return m.tools.Close()
}
