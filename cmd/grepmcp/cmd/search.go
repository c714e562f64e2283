package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grepmcp/grepmcp/internal/config"
	gerrors "github.com/grepmcp/grepmcp/internal/errors"
	"github.com/grepmcp/grepmcp/internal/history"
	"github.com/grepmcp/grepmcp/internal/search"
	"github.com/grepmcp/grepmcp/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	context       int
	contextSet    bool
	pattern       string
	caseSensitive bool
	excludes      []string
	format        string // "text", "json"
	interactive   bool
	noHistory     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search KEYWORD PATH",
		Short: "Search a file or directory for a keyword",
		Long: `Search for lines containing a keyword.

PATH may be a file or a directory; grepmcp picks the search mode from
what it finds there. File searches show context lines around each
match, directory searches report matching lines per file.`,
		Example: `  grepmcp search "TODO" ./src
  grepmcp search "connect" server.py --context 4
  grepmcp search "handler" . --pattern .go --case-sensitive
  grepmcp search "import" . --exclude "vendor/**" --format json
  grepmcp search "" . --interactive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.contextSet = cmd.Flags().Changed("context")
			return runSearch(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.context, "context", "C", 0, "Context lines around each match (file targets)")
	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "Only search files with this name suffix, e.g. .py (directory targets)")
	cmd.Flags().BoolVar(&opts.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().StringArrayVar(&opts.excludes, "exclude", nil, "Glob of paths to skip, repeatable (directory targets)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Interactive search (re-runs as you type)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this search in history")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, keyword, path string, opts searchOptions) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	contextLines := cfg.Search.ContextLinesOrDefault()
	if opts.contextSet {
		contextLines = opts.context
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return gerrors.PathNotFound("Path", path)
		}
		return gerrors.ReadFailed(path, err)
	}
	isDir := info.IsDir()

	searcher := search.NewSearcher(slog.Default())

	var hist *history.Store
	if !opts.noHistory && cfg.History.IsEnabled() {
		histPath := cfg.History.Path
		if histPath == "" {
			histPath = config.DefaultHistoryPath()
		}
		if hist, err = history.Open(histPath, cfg.History.MaxEntries); err != nil {
			slog.Debug("history unavailable", slog.String("error", err.Error()))
			hist = nil
		} else {
			defer func() { _ = hist.Close() }()
		}
	}

	if opts.interactive {
		return runInteractiveSearch(ctx, searcher, cfg, path, keyword, isDir, contextLines, opts)
	}

	start := time.Now()
	if isDir {
		result, err := searcher.SearchDirectory(ctx, path, keyword, search.DirectoryOptions{
			CaseSensitive: opts.caseSensitive,
			FilePattern:   opts.pattern,
			Extensions:    cfg.Search.TextExtensions,
			Excludes:      opts.excludes,
		})
		if err != nil {
			return err
		}
		recordSearch(hist, history.Record{
			Operation:     history.OpDirectory,
			Target:        path,
			Keyword:       keyword,
			CaseSensitive: opts.caseSensitive,
			FilePattern:   opts.pattern,
			MatchCount:    result.TotalMatches,
			FileCount:     len(result.Files),
			DurationMS:    time.Since(start).Milliseconds(),
		})

		if opts.format == "json" {
			return printJSON(cmd, result)
		}
		cmd.Print(search.FormatDirectoryResult(result, keyword))
		return nil
	}

	result, err := searcher.SearchFile(path, keyword, search.FileOptions{
		CaseSensitive: opts.caseSensitive,
		ContextLines:  contextLines,
	})
	if err != nil {
		return err
	}
	recordSearch(hist, history.Record{
		Operation:     history.OpFile,
		Target:        path,
		Keyword:       keyword,
		CaseSensitive: opts.caseSensitive,
		ContextLines:  contextLines,
		MatchCount:    result.MatchCount,
		FileCount:     1,
		DurationMS:    time.Since(start).Milliseconds(),
	})

	if opts.format == "json" {
		return printJSON(cmd, result)
	}
	cmd.Print(search.FormatFileResult(result, keyword))
	return nil
}

// runInteractiveSearch hands the terminal to the bubbletea session.
// History is not recorded per keystroke; interactive sessions are
// exploratory and would drown the log.
func runInteractiveSearch(ctx context.Context, searcher *search.Searcher, cfg *config.Config,
	path, initial string, isDir bool, contextLines int, opts searchOptions) error {

	searchFn := func(keyword string) (string, int, error) {
		if isDir {
			result, err := searcher.SearchDirectory(ctx, path, keyword, search.DirectoryOptions{
				CaseSensitive: opts.caseSensitive,
				FilePattern:   opts.pattern,
				Extensions:    cfg.Search.TextExtensions,
				Excludes:      opts.excludes,
			})
			if err != nil {
				return "", 0, err
			}
			return search.FormatDirectoryResult(result, keyword), result.TotalMatches, nil
		}

		result, err := searcher.SearchFile(path, keyword, search.FileOptions{
			CaseSensitive: opts.caseSensitive,
			ContextLines:  contextLines,
		})
		if err != nil {
			return "", 0, err
		}
		return search.FormatFileResult(result, keyword), result.MatchCount, nil
	}

	return ui.RunInteractive(os.Stdout, searchFn, ui.InteractiveOptions{
		Target:         path,
		InitialKeyword: initial,
	})
}

// recordSearch writes one history entry, ignoring failures.
func recordSearch(hist *history.Store, r history.Record) {
	if hist == nil {
		return
	}
	if err := hist.Add(r); err != nil {
		slog.Debug("history record failed", slog.String("error", err.Error()))
	}
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
