package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "connections", Short: "Manage data connections"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			items, err := c.ListConnections(cmd.Context())
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(items)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Name", "Kind", "Driver"})
			for _, cn := range items {
				tw.Append([]string{fmt.Sprint(cn.ID), cn.Name, cn.Kind, cn.Driver})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}
