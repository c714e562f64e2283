package search

import (
	"bytes"
	"log/slog"
	"os"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// binarySniffLimit is how many leading bytes are inspected for NUL when
// deciding whether a file is binary.
const binarySniffLimit = 512

// Searcher runs keyword searches over files and directory trees.
type Searcher struct {
	logger *slog.Logger
}

// NewSearcher creates a Searcher. A nil logger falls back to slog.Default.
func NewSearcher(logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{logger: logger}
}

// SearchFile searches one file line by line and returns every match with
// its context window. The returned FileResult is complete even when no
// line matches; the error paths are validation failures and I/O problems
// on the file itself.
//
// Validation happens before any I/O. Path checks go through os.Stat, so
// a symlink to a regular file is searched through its target.
func (s *Searcher) SearchFile(path, keyword string, opts FileOptions) (*FileResult, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}
	if opts.ContextLines < 0 {
		return nil, gerrors.InvalidArgument("context_lines must be non-negative")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyPathError(path, "file", err)
	}
	if !info.Mode().IsRegular() {
		return nil, gerrors.NotAFile(path)
	}

	lines, err := loadLines(path)
	if err != nil {
		return nil, err
	}

	folded := foldKeyword(keyword, opts.CaseSensitive)
	result := &FileResult{FilePath: path, Matches: []Match{}}
	for i, line := range lines {
		if !matchLine(line, folded, opts.CaseSensitive) {
			continue
		}
		result.Matches = append(result.Matches, buildMatch(lines, i, opts.ContextLines))
	}
	result.MatchCount = len(result.Matches)
	return result, nil
}

// buildMatch assembles the match at 0-based index i with a context
// window of ctx lines on each side, clamped at file bounds.
func buildMatch(lines []string, i, ctx int) Match {
	m := Match{LineNumber: i + 1, LineText: lines[i]}

	start := i - ctx
	if start < 0 {
		start = 0
	}
	for j := start; j < i; j++ {
		m.ContextBefore = append(m.ContextBefore, ContextLine{LineNumber: j + 1, Text: lines[j]})
	}

	end := i + ctx
	if last := len(lines) - 1; end > last {
		end = last
	}
	for j := i + 1; j <= end; j++ {
		m.ContextAfter = append(m.ContextAfter, ContextLine{LineNumber: j + 1, Text: lines[j]})
	}

	return m
}

// loadLines reads the whole file and splits it into lines, classifying
// failures into the search error taxonomy. The file handle is released
// before returning on every path.
func loadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyPathError(path, "file", err)
	}
	if isBinary(data) {
		return nil, gerrors.Decode(path)
	}
	return splitLines(string(data)), nil
}

// isBinary reports whether data looks like a binary file: a NUL byte
// within the first binarySniffLimit bytes.
func isBinary(data []byte) bool {
	limit := len(data)
	if limit > binarySniffLimit {
		limit = binarySniffLimit
	}
	return bytes.IndexByte(data[:limit], 0) >= 0
}

// classifyPathError maps a stat/open/read failure to the taxonomy.
// kind is "file" or "directory" and only shapes the not-found message.
func classifyPathError(path, kind string, err error) error {
	switch {
	case os.IsNotExist(err):
		return gerrors.PathNotFound(kind, path)
	case os.IsPermission(err):
		return gerrors.Permission(path, err)
	default:
		return gerrors.ReadFailed(path, err)
	}
}
