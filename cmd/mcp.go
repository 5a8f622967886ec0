package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"invitopia/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Run the MCP server on stdin/stdout",
	GroupID: "core",
	Long: `Runs invitopia as an MCP server so AI agents can create and edit templates.

Edits are kept in memory with full undo/redo and written back by the
autosave schedule, on save_template, and when the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		a, err := app.New(ctx, cfg, app.Options{})
		if err != nil {
			return err
		}
		slog.Info("mcp server ready", "driver", cfg.Storage.Driver, "autosave", cfg.Autosave.Enabled)
		return a.ServeMCP(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
