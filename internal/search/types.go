// Package search implements keyword search over single files and
// directory trees. Matching is plain substring containment per line,
// case-insensitive unless requested otherwise, with configurable context
// lines around file matches.
package search

// ContextLine is one line of context surrounding a match.
type ContextLine struct {
	// LineNumber is the 1-based line number within the file.
	LineNumber int `json:"line_number"`

	// Text is the line content with its terminator trimmed.
	Text string `json:"text"`
}

// Match is a single matching line together with its context window.
// Line numbers are 1-based; ContextBefore and ContextAfter are clamped
// at file bounds, never wrapped or padded. Neighboring matches keep
// their own windows even when they overlap.
type Match struct {
	// LineNumber is the 1-based number of the matched line.
	LineNumber int `json:"line_number"`

	// LineText is the matched line with its terminator trimmed.
	LineText string `json:"line_text"`

	// ContextBefore holds up to context_lines lines preceding the match,
	// in file order.
	ContextBefore []ContextLine `json:"context_before,omitempty"`

	// ContextAfter holds up to context_lines lines following the match,
	// in file order.
	ContextAfter []ContextLine `json:"context_after,omitempty"`
}

// FileResult is the outcome of searching one file.
// MatchCount always equals len(Matches); a file search that finds
// nothing still returns a FileResult with zero matches.
type FileResult struct {
	// FilePath is the caller-supplied path for single-file searches, or
	// the path relative to the searched root for directory children.
	FilePath string `json:"file_path"`

	// Matches holds all matching lines in ascending line order.
	Matches []Match `json:"matches"`

	// MatchCount is the number of matches.
	MatchCount int `json:"match_count"`
}

// DirectoryResult is the outcome of searching a directory tree.
// Files holds only children with at least one match, in traversal order.
type DirectoryResult struct {
	// DirectoryPath is the caller-supplied root path, verbatim.
	DirectoryPath string `json:"directory_path"`

	// Files holds per-file results with MatchCount > 0.
	Files []FileResult `json:"files"`

	// TotalMatches is the sum of MatchCount across Files.
	TotalMatches int `json:"total_matches"`

	// Skipped records files and directories that could not be read or
	// decoded; the search returns partial results instead of failing.
	Skipped []SkippedFile `json:"skipped,omitempty"`
}

// SkippedFile records one path skipped during a directory search.
type SkippedFile struct {
	// Path is relative to the searched root.
	Path string `json:"path"`

	// Reason is a short human-readable cause.
	Reason string `json:"reason"`
}
