// Package main is the bookstore command: the HTTP API, database
// migrations and a terminal front-end over the same stores.
package main

import (
	"io/fs"
	stdLog "log"
	"os"

	"github.com/Astemirdum/bookstore/bookstore/config"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	dbDriver string
	dbDSN    string
	apiKey   string
	debug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bookstore",
	Short: "Bestsellers, catalog search, search history and reviews",
	Long: `bookstore fronts the remote book catalog and keeps search history
and reviews in a local database.

Settings are read from the environment and from .env in the working
directory; flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			stdLog.Println("load envs from .env ", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "database driver, sqlite or pgx (env DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "database DSN (env DB_DSN)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "catalog API key (env CATALOG_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(browseCmd)
}

func loadConfig() config.Config {
	ops := []config.Option{
		config.WithDatabase(dbDriver, dbDSN),
		config.WithAPIKey(apiKey),
	}
	if debug {
		ops = append(ops, config.WithLogLevel(zapcore.DebugLevel))
	}
	return config.NewConfig(ops...)
}
