// Command supportmesh runs the customer support agent mesh: the router, the
// two specialist agents, the database tool host, and a small query client.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ashhhwin/supportmesh"
	"github.com/ashhhwin/supportmesh/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "supportmesh",
	Short: "Multi-agent customer support mesh",
	Long: `supportmesh runs a small mesh of cooperating agents for customer
support: a router that classifies queries and fans them out, a customer data
agent fronting the database tool host, and a support agent handling tickets
and actions.

Each agent runs as its own process:

  supportmesh router
  supportmesh data-agent
  supportmesh support-agent

The tool host is normally spawned by the agents themselves over stdio, but
can be run standalone with 'supportmesh toolhost'. Try a query against a
running mesh with 'supportmesh query'.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML)")

	rootCmd.AddCommand(routerCmd)
	rootCmd.AddCommand(dataAgentCmd)
	rootCmd.AddCommand(supportAgentCmd)
	rootCmd.AddCommand(toolhostCmd)
	rootCmd.AddCommand(queryCmd)
}

// loadConfig reads configuration and fills in the tool host spawn command:
// unless overridden, agents re-execute this binary with the toolhost
// subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.ToolHost.Command == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, err
		}
		cfg.ToolHost.Command = self
		cfg.ToolHost.Args = []string{"toolhost", "--db", cfg.ToolHost.DBPath}
	}
	return cfg, nil
}

func newMesh() (*supportmesh.Mesh, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	mesh, err := supportmesh.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return mesh, cfg, nil
}
