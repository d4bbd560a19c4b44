package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/recurra/internal/mcp"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Container == nil {
			return cli.ErrNotInitialized
		}
		container := app.Container

		cfg := *container.Config
		if serveAddr != "" {
			cfg.MCPAddr = serveAddr
		}

		ctx := cmd.Context()
		container.StartOutbox(ctx)

		err := mcpinternal.Serve(ctx, &cfg, app, container.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to MCP_ADDR)")
}
