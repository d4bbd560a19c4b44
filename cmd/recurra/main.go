package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/adapter/cli/export"
	"github.com/felixgeelhaar/recurra/adapter/cli/mcp"
	"github.com/felixgeelhaar/recurra/adapter/cli/occurrence"
	"github.com/felixgeelhaar/recurra/adapter/cli/rule"
	"github.com/felixgeelhaar/recurra/adapter/cli/serve"
	"github.com/felixgeelhaar/recurra/adapter/cli/task"
	"github.com/felixgeelhaar/recurra/adapter/cli/tasklist"
	"github.com/felixgeelhaar/recurra/internal/app"
	"github.com/felixgeelhaar/recurra/pkg/config"
	"github.com/felixgeelhaar/recurra/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.SetLogger(observability.NewLogger(observability.DefaultLogConfig()))

	var container *app.Container
	defer func() {
		if container != nil {
			container.Close()
		}
	}()

	cli.SetBootstrapper(func(ctx context.Context, configPath string, verbose bool) (*cli.App, error) {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		logCfg := cfg.Logging("recurra", cli.Version)
		if verbose {
			logCfg.Level = observability.LogLevelDebug
		}
		logger := observability.NewLogger(logCfg)
		cli.SetLogger(logger)

		container, err = app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return cli.NewApp(container), nil
	})

	cli.AddCommand(tasklist.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(occurrence.Cmd)
	cli.AddCommand(rule.Cmd)
	cli.AddCommand(export.Cmd)
	cli.AddCommand(serve.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
