package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newDbQaCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "dbqa", Short: "Database health checks and alerts"}
	cmd.AddCommand(newDbQaQueriesCmd(), newDbQaRunCmd(), newDbQaAlertsCmd())
	return cmd
}

func newDbQaQueriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List health-check queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			items, err := c.ListDbQaQueries(cmd.Context())
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(items)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Name", "Category", "Connection", "Frequency"})
			for _, q := range items {
				tw.Append([]string{fmt.Sprint(q.ID), q.Name, q.Category, fmt.Sprint(q.ConnectionID), q.Frequency})
			}
			tw.Render()
			return nil
		},
	}
}

func newDbQaRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [query-id]",
		Short: "Run one health-check query now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid query id %q", args[0])
			}
			c := apiClient(cmd)
			report, err := c.RunDbQaQuery(cmd.Context(), id)
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(report)
			}
			if report.Error != "" {
				fmt.Printf("execution %d failed: %s\n", report.ExecutionID, report.Error)
			} else {
				fmt.Printf("execution %d: %d rows\n", report.ExecutionID, report.RowCount)
			}
			if len(report.Alerts) == 0 {
				return nil
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"Alert", "Name", "Triggered", "Throttled", "Notified"})
			for _, a := range report.Alerts {
				tw.Append([]string{
					fmt.Sprint(a.AlertID), a.Name,
					fmt.Sprint(a.Triggered), fmt.Sprint(a.Throttled),
					strings.Join(a.Channels, ","),
				})
			}
			tw.Render()
			return nil
		},
	}
}

func newDbQaAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd)
			items, err := c.ListAlerts(cmd.Context())
			if err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(items)
			}
			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"ID", "Query", "Name", "Severity", "Status", "Last Triggered"})
			for _, a := range items {
				last := "-"
				if a.LastTriggeredAt != nil {
					last = a.LastTriggeredAt.Format(time.RFC3339)
				}
				tw.Append([]string{fmt.Sprint(a.ID), fmt.Sprint(a.QueryID), a.Name, a.Severity, a.Status, last})
			}
			tw.Render()
			return nil
		},
	}
}
