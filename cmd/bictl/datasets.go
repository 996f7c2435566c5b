package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "datasets", Short: "Manage datasets"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			items, err := c.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(items)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Name", "Connection"})
			for _, d := range items {
				tw.Append([]string{fmt.Sprint(d.ID), d.Name, fmt.Sprint(d.ConnectionID)})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}
