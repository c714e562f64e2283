package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/grepmcp/grepmcp/internal/config"
	"github.com/grepmcp/grepmcp/internal/history"
	"github.com/grepmcp/grepmcp/internal/logging"
	"github.com/grepmcp/grepmcp/internal/mcp"
	"github.com/grepmcp/grepmcp/internal/search"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server to provide keyword search for AI assistants.

The server communicates over stdio using the Model Context Protocol.
Stdout carries JSON-RPC exclusively; all diagnostics go to
~/.grepmcp/logs/server.log (view with 'grepmcp-logs').`,
		Example: `  # Start server with stdio transport (for Claude Code, Cursor)
  grepmcp serve

  # Register with Claude Code
  claude mcp add grepmcp -- grepmcp serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio)")

	return cmd
}

// runServe starts the MCP server. Nothing may be written to stdout before
// mcp.Server.Serve takes it over.
func runServe(ctx context.Context, transport string) error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return err
	}
	defer cleanup()

	// A second server sharing the log directory corrupts rotation; warn
	// in the log and keep going rather than refusing to start.
	lock := mcp.NewServeLock(logging.DefaultLogDir())
	if acquired, lockErr := lock.TryLock(); lockErr != nil {
		slog.Warn("Could not acquire serve lock", slog.String("error", lockErr.Error()))
	} else if !acquired {
		slog.Warn("Another grepmcp server appears to be running",
			slog.String("lock_file", lock.Path()))
	} else {
		defer func() { _ = lock.Unlock() }()
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		slog.Warn("Config load failed, using defaults", slog.String("error", err.Error()))
		cfg = config.NewConfig()
	}

	var hist *history.Store
	if cfg.History.IsEnabled() {
		path := cfg.History.Path
		if path == "" {
			path = config.DefaultHistoryPath()
		}
		hist, err = history.Open(path, cfg.History.MaxEntries)
		if err != nil {
			// History is a convenience; the server runs without it.
			slog.Warn("History unavailable",
				slog.String("path", path),
				slog.String("error", err.Error()))
			hist = nil
		} else {
			defer func() { _ = hist.Close() }()
		}
	}

	searcher := search.NewSearcher(slog.Default())
	server, err := mcp.NewServer(searcher, cfg, hist)
	if err != nil {
		return err
	}

	slog.Info("Server configured",
		slog.String("root", root),
		slog.Bool("history", hist != nil),
		slog.Int("extensions", len(cfg.Search.TextExtensions)))

	return server.Serve(ctx, transport)
}
