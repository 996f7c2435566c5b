package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newWidgetsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "widgets", Short: "Manage widgets"}
	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List widgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			page, err := c.ListWidgets(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(page)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Name", "Type", "Dataset"})
			for _, w := range page.Items {
				ds := "-"
				if w.DatasetID != nil {
					ds = fmt.Sprint(*w.DatasetID)
				}
				tw.Append([]string{w.ID, w.Name, w.Type, ds})
			}
			tw.Render()
			fmt.Printf("total: %d\n", page.Total)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.AddCommand(list)
	return cmd
}
