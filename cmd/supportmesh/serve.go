package main

import (
	"net/http"

	"github.com/spf13/cobra"
)

var routerCmd = &cobra.Command{
	Use:   "router",
	Short: "Run the router agent",
	Long: `Runs the router agent: classifies incoming customer queries, fans
each intent out to the specialist agents, and aggregates their answers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mesh, cfg, err := newMesh()
		if err != nil {
			return err
		}
		defer mesh.Close()

		mesh.Logger().Info("router agent listening", "addr", cfg.Agents.RouterAddr)
		return http.ListenAndServe(cfg.Agents.RouterAddr, mesh.Router())
	},
}

var dataAgentCmd = &cobra.Command{
	Use:   "data-agent",
	Short: "Run the customer data agent",
	Long: `Runs the customer data agent: answers customer lookups and updates
by calling the database tool host over MCP stdio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mesh, cfg, err := newMesh()
		if err != nil {
			return err
		}
		defer mesh.Close()

		mesh.Logger().Info("customer data agent listening", "addr", cfg.Agents.DataAddr)
		return http.ListenAndServe(cfg.Agents.DataAddr, mesh.DataAgent())
	},
}

var supportAgentCmd = &cobra.Command{
	Use:   "support-agent",
	Short: "Run the support agent",
	Long: `Runs the support agent: handles tickets, refunds, cancellations and
escalations, phrasing its confirmations through the oracle when one is
configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mesh, cfg, err := newMesh()
		if err != nil {
			return err
		}
		defer mesh.Close()

		mesh.Logger().Info("support agent listening", "addr", cfg.Agents.SupportAddr)
		return http.ListenAndServe(cfg.Agents.SupportAddr, mesh.SupportAgent())
	},
}
