package main

import (
	"github.com/Astemirdum/bookstore/bookstore/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate up|down|status",
	Short: "Apply, roll back or list database migrations",
	Long: `Run goose migrations for the configured driver.

Examples:
  bookstore migrate status
  bookstore migrate down --db-dsn=/tmp/bookstore.db`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cmd.Context(), loadConfig(), args[0])
	},
}
