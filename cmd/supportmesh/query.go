package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashhhwin/supportmesh/httpapi"
)

var queryCustomerID int

var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Send a query to a running router agent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		body, err := json.Marshal(httpapi.QueryRequest{
			CustomerID: queryCustomerID,
			Text:       strings.Join(args, " "),
		})
		if err != nil {
			return err
		}

		resp, err := http.Post(cfg.Agents.RouterURL+"/query", "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var out httpapi.QueryResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
		}

		pretty, err := json.MarshalIndent(out.Results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryCustomerID, "customer-id", 0, "Customer ID the query is about")
	_ = queryCmd.MarkFlagRequired("customer-id")
}
