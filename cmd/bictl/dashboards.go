package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDashboardsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "dashboards", Short: "Manage dashboards"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			items, err := c.ListDashboards(cmd.Context())
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(items)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Name", "Updated"})
			for _, d := range items {
				tw.Append([]string{fmt.Sprint(d.ID), d.Name, d.UpdatedAt.Format(time.RFC3339)})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}
