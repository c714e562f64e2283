package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grepmcp/grepmcp/internal/config"
	gerrors "github.com/grepmcp/grepmcp/internal/errors"
	"github.com/grepmcp/grepmcp/internal/logging"
	"github.com/grepmcp/grepmcp/internal/output"
	"github.com/grepmcp/grepmcp/internal/search"
	"github.com/grepmcp/grepmcp/internal/watcher"
)

// warnCacheSize bounds the skip-warning dedupe cache. Re-scans of large
// trees repeat the same unreadable files every batch; the LRU keeps each
// path+reason pair to one warning until it ages out.
const warnCacheSize = 512

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	pattern       string
	caseSensitive bool
	context       int
	contextSet    bool
	debounce      time.Duration
	excludes      []string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch KEYWORD PATH",
		Short: "Re-run a search whenever files change",
		Long: `Search a file or directory for a keyword, then watch it and re-run
the search after every change.

Reports go to stdout; status lines go to stderr, so the reports pipe
cleanly. A re-run whose report is identical to the previous one prints
nothing. Stop with Ctrl+C.`,
		Example: `  grepmcp watch "TODO" ./src
  grepmcp watch "FIXME" . --pattern .go --debounce 500ms
  grepmcp watch "retry" server.py --context 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.contextSet = cmd.Flags().Changed("context")
			return runWatch(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "Only search files with this name suffix (directory targets)")
	cmd.Flags().BoolVar(&opts.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().IntVarP(&opts.context, "context", "C", 0, "Context lines around each match (file targets)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet window before re-running (default from config, 200ms)")
	cmd.Flags().StringArrayVar(&opts.excludes, "exclude", nil, "Glob of paths to skip, repeatable (directory targets)")

	return cmd
}

// watchSession holds the state shared between the initial search and the
// per-batch re-runs.
type watchSession struct {
	searcher     *search.Searcher
	status       *output.Writer
	target       string
	keyword      string
	isDir        bool
	contextLines int
	opts         watchOptions
	extensions   []string

	lastReport uint64
	warned     *lru.Cache[string, struct{}]
}

func runWatch(ctx context.Context, keyword, path string, opts watchOptions) error {
	// Watch mode logs to its own file so a concurrent MCP server's log
	// stays readable.
	logCfg := logging.DefaultConfig()
	logCfg.FilePath = logging.WatchLogPath()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return gerrors.PathNotFound("Path", path)
		}
		return gerrors.ReadFailed(path, err)
	}

	contextLines := cfg.Search.ContextLinesOrDefault()
	if opts.contextSet {
		contextLines = opts.context
	}

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	if opts.debounce > 0 {
		debounce = opts.debounce
	}

	warned, err := lru.New[string, struct{}](warnCacheSize)
	if err != nil {
		return err
	}

	session := &watchSession{
		searcher:     search.NewSearcher(slog.Default()),
		status:       output.New(os.Stderr),
		target:       path,
		keyword:      keyword,
		isDir:        info.IsDir(),
		contextLines: contextLines,
		opts:         opts,
		extensions:   cfg.Search.TextExtensions,
		warned:       warned,
	}

	// Initial run before the watcher starts, so the first report is not
	// gated on a file change.
	if err := session.run(ctx); err != nil {
		return err
	}

	// A single file cannot be watched directly: editors replace files on
	// save, which would orphan the watch. Watch the parent directory and
	// filter events down to the file.
	watchRoot := path
	var fileFilter string
	if !session.isDir {
		watchRoot = filepath.Dir(path)
		fileFilter = filepath.Base(path)
	}

	w, err := watcher.New(watcher.Options{
		DebounceWindow:  debounce,
		EventBufferSize: cfg.Watch.EventBuffer,
	})
	if err != nil {
		return gerrors.New(gerrors.ErrCodeWatchFailed, "create watcher", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.status.Statusf("watching", "%s (Ctrl+C to stop)", path)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Start(gctx, watchRoot)
	})

	g.Go(func() error {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				if fileFilter != "" && !batchTouches(batch, fileFilter) {
					continue
				}
				slog.Debug("change detected", slog.Int("events", len(batch)))
				if err := session.run(gctx); err != nil {
					// The target disappearing mid-session is terminal;
					// everything else is reported and watched through.
					if gerrors.IsNotFound(err) {
						return err
					}
					session.status.Error(err.Error())
				}
			case werr, ok := <-w.Errors():
				if !ok {
					return nil
				}
				session.status.Warningf("watch error: %v", werr)
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		session.status.Newline()
		session.status.Status("", "Stopped.")
		return nil
	}
	return err
}

// run executes one search pass and prints the report to stdout unless it
// is identical to the previous pass.
func (s *watchSession) run(ctx context.Context) error {
	var report string

	if s.isDir {
		result, err := s.searcher.SearchDirectory(ctx, s.target, s.keyword, search.DirectoryOptions{
			CaseSensitive: s.opts.caseSensitive,
			FilePattern:   s.opts.pattern,
			Extensions:    s.extensions,
			Excludes:      s.opts.excludes,
		})
		if err != nil {
			return err
		}
		s.warnSkipped(result.Skipped)
		report = search.FormatDirectoryResult(result, s.keyword)
	} else {
		result, err := s.searcher.SearchFile(s.target, s.keyword, search.FileOptions{
			CaseSensitive: s.opts.caseSensitive,
			ContextLines:  s.contextLines,
		})
		if err != nil {
			return err
		}
		report = search.FormatFileResult(result, s.keyword)
	}

	sum := xxhash.Sum64String(report)
	if sum == s.lastReport {
		slog.Debug("report unchanged, suppressed")
		return nil
	}
	s.lastReport = sum

	fmt.Print(report)
	return nil
}

// warnSkipped prints one stderr warning per unreadable file, deduplicated
// across re-scans.
func (s *watchSession) warnSkipped(skipped []search.SkippedFile) {
	for _, sk := range skipped {
		key := sk.Path + "\x00" + sk.Reason
		if _, seen := s.warned.Get(key); seen {
			continue
		}
		s.warned.Add(key, struct{}{})
		s.status.Warningf("skipped %s: %s", sk.Path, sk.Reason)
	}
}

// batchTouches reports whether any event in the batch is for the named
// file at the watch root.
func batchTouches(batch []watcher.FileEvent, name string) bool {
	for _, ev := range batch {
		if ev.Path == name {
			return true
		}
	}
	return false
}
