package search

import (
	"strings"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// FileOptions configures a single-file search.
type FileOptions struct {
	// CaseSensitive switches to exact-case matching. Off by default;
	// the default comparison lower-cases both line and keyword.
	CaseSensitive bool

	// ContextLines is the number of lines captured before and after
	// each match. 0 captures the matched line only.
	ContextLines int
}

// DirectoryOptions configures a directory search.
// Directory searches always run with zero context lines; the per-file
// context window is a single-file feature.
type DirectoryOptions struct {
	// CaseSensitive switches to exact-case matching.
	CaseSensitive bool

	// FilePattern restricts candidates to names ending with this literal
	// suffix (case-sensitive), e.g. ".py" or "_test.go". When empty, the
	// Extensions allow-list applies instead.
	FilePattern string

	// Extensions is the allow-list of lower-cased extensions searched
	// when FilePattern is empty. Nil falls back to the built-in list.
	Extensions []string

	// Excludes are optional doublestar globs for paths to skip,
	// relative to the searched root.
	Excludes []string
}

// validateKeyword rejects empty keywords before any I/O happens.
func validateKeyword(keyword string) error {
	if keyword == "" {
		return gerrors.InvalidArgument("keyword must not be empty")
	}
	return nil
}

// matchLine reports whether line contains keyword under the given case
// rule. The caller pre-folds the keyword once via foldKeyword.
func matchLine(line, foldedKeyword string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(line, foldedKeyword)
	}
	return strings.Contains(strings.ToLower(line), foldedKeyword)
}

// foldKeyword lower-cases the keyword once for case-insensitive runs.
func foldKeyword(keyword string, caseSensitive bool) string {
	if caseSensitive {
		return keyword
	}
	return strings.ToLower(keyword)
}

// splitLines breaks file content into lines: split on "\n", drop the
// trailing empty element produced by a final newline, and trim one
// trailing "\r" per line. Empty content yields zero lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
