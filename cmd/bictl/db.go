package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/gridbi/pkg/migrator"
	"github.com/faciam-dev/gridbi/pkg/util"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "db", Short: "Database operations"}
	cmd.AddCommand(newMigrateCmd(), newDBVersionCmd())
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var dsn, driver, tablePrefix, to string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run metadata DB migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--db is required")
			}
			if driver == "" {
				d, err := util.DetectDriver(dsn)
				if err != nil {
					return err
				}
				driver = d
			}
			target := 0
			if to != "" && to != "latest" {
				v, err := strconv.Atoi(to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				target = v
			}
			if tablePrefix == "" {
				tablePrefix = util.GetEnv("TABLE_PREFIX", "gridbi_")
			}
			db, err := sql.Open(driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			m := migrator.NewWithDriverAndPrefix(driver, tablePrefix)
			if err := m.Up(cmd.Context(), db, target); err != nil {
				return err
			}
			cur, err := m.Current(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (%s)\n", cur, m.SemVer(cur))
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", os.Getenv("BI_DB_DSN"), "metadata DB DSN")
	cmd.Flags().StringVar(&driver, "driver", "", "DB driver (mysql|postgres), detected from DSN when empty")
	cmd.Flags().StringVar(&tablePrefix, "table-prefix", "", "metadata table prefix")
	cmd.Flags().StringVar(&to, "to", "latest", "target version (number or latest)")
	return cmd
}

func newDBVersionCmd() *cobra.Command {
	var dsn, driver, tablePrefix string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--db is required")
			}
			if driver == "" {
				d, err := util.DetectDriver(dsn)
				if err != nil {
					return err
				}
				driver = d
			}
			if tablePrefix == "" {
				tablePrefix = util.GetEnv("TABLE_PREFIX", "gridbi_")
			}
			db, err := sql.Open(driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			m := migrator.NewWithDriverAndPrefix(driver, tablePrefix)
			cur, err := m.Current(cmd.Context(), db)
			if err != nil {
				return err
			}
			sv := m.SemVer(cur)
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (%s)\n", cur, sv)
			if migrator.SchemaOutdated(sv, m.SemVer(m.Latest())) {
				fmt.Fprintf(cmd.OutOrStdout(), "schema is behind latest %s; run bictl db migrate\n", m.SemVer(m.Latest()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", os.Getenv("BI_DB_DSN"), "metadata DB DSN")
	cmd.Flags().StringVar(&driver, "driver", "", "DB driver (mysql|postgres), detected from DSN when empty")
	cmd.Flags().StringVar(&tablePrefix, "table-prefix", "", "metadata table prefix")
	return cmd
}
