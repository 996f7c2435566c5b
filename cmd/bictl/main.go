package main

import (
	"log"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "bictl"}

func init() {
	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080", "GridBI API base URL")
	rootCmd.PersistentFlags().String("tenant", "default", "tenant id")
	rootCmd.PersistentFlags().String("output", "table", "Output format (table|json)")

	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newDashboardsCmd())
	rootCmd.AddCommand(newWidgetsCmd())
	rootCmd.AddCommand(newConnectionsCmd())
	rootCmd.AddCommand(newDatasetsCmd())
	rootCmd.AddCommand(newDbQaCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
