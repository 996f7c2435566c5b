package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/gridbi/sdk/client"
)

// apiClient builds a client from the persistent flags.
func apiClient(cmd *cobra.Command) *client.Client {
	base, _ := cmd.Flags().GetString("api-url")
	tenant, _ := cmd.Flags().GetString("tenant")
	return client.New(base, client.WithTenant(tenant))
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func outputFormat(cmd *cobra.Command) string {
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = "table"
	}
	return out
}
