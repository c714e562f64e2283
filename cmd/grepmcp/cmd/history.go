package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grepmcp/grepmcp/internal/config"
	"github.com/grepmcp/grepmcp/internal/history"
	"github.com/grepmcp/grepmcp/internal/output"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Long: `Show recent searches recorded by the MCP server and the search command.

History lives in a SQLite database (~/.grepmcp/history.db by default)
and can be disabled with history.enabled: false in .grepmcp.yaml.`,
		Example: `  grepmcp history
  grepmcp history --limit 50
  grepmcp history --clear`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit, clear)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete all history entries")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, clear bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(".")
	if err != nil {
		cfg = config.NewConfig()
	}
	if !cfg.History.IsEnabled() {
		out.Status("", "History is disabled (history.enabled: false).")
		return nil
	}

	path := cfg.History.Path
	if path == "" {
		path = config.DefaultHistoryPath()
	}

	store, err := history.Open(path, cfg.History.MaxEntries)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if clear {
		if err := store.Clear(); err != nil {
			return err
		}
		out.Success("History cleared.")
		return nil
	}

	records, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		out.Status("", "No searches recorded yet.")
		return nil
	}

	for _, r := range records {
		stamp := r.CreatedAt.Local().Format("2006-01-02 15:04:05")
		var detail string
		if r.Operation == history.OpDirectory {
			detail = fmt.Sprintf("%d matches in %d files", r.MatchCount, r.FileCount)
			if r.FilePattern != "" {
				detail += " (pattern " + r.FilePattern + ")"
			}
		} else {
			detail = fmt.Sprintf("%d matches", r.MatchCount)
		}
		out.Statusf("", "%s  %-9s %q in %s: %s", stamp, r.Operation, r.Keyword, r.Target, detail)
	}
	return nil
}
