package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ashhhwin/supportmesh/toolhost"
)

var (
	toolhostDBPath string
	toolhostSeed   bool
)

var toolhostCmd = &cobra.Command{
	Use:   "toolhost",
	Short: "Run the database tool host on stdio",
	Long: `Runs the MCP tool host exposing the customer database over stdio.
Agents spawn this subcommand themselves; running it by hand is mainly useful
with an MCP inspector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := toolhost.Open(toolhostDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if toolhostSeed {
			if err := store.Seed(context.Background()); err != nil {
				return err
			}
		}
		return toolhost.Serve(toolhost.NewServer(store, version))
	},
}

func init() {
	toolhostCmd.Flags().StringVar(&toolhostDBPath, "db", "support.db", "Path to the sqlite database")
	toolhostCmd.Flags().BoolVar(&toolhostSeed, "seed", true, "Insert sample data when the database is empty")
}
