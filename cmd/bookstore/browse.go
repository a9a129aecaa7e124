package main

import (
	"github.com/Astemirdum/bookstore/bookstore/app"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse bestsellers, search and write reviews in the terminal",
	Long: `Line-oriented front-end over the catalog and the local stores.

Logs go to stderr unless LOG_SINK names a file.

` + app.BrowseHelp,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Browse(cmd.Context(), loadConfig(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
