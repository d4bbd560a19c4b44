// Package clitest builds a CLI application on a throwaway SQLite database.
package clitest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	internalApp "github.com/felixgeelhaar/recurra/internal/app"
	"github.com/felixgeelhaar/recurra/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Today is the clock of every application built here.
var Today = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// NewApp builds an application and installs it as the global CLI app until
// the test ends.
func NewApp(t *testing.T) *cli.App {
	t.Helper()
	cfg := config.Defaults()
	cfg.DatabaseDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "recurra.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := internalApp.NewContainer(context.Background(), cfg, logger,
		internalApp.WithClock(func() time.Time { return Today }))
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app
}

// Run executes cmd's RunE with args and returns what it printed.
func Run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
