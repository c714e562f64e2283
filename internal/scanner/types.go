// Package scanner enumerates candidate files for directory search.
// Traversal is iterative and fully deterministic: within each directory,
// files are visited before subdirectories, both in lexicographic name
// order, and subdirectories are then descended depth-first in that same
// order.
package scanner

// Options configures a scan.
type Options struct {
	// Pattern is a literal file name suffix (e.g. "_test.go"). When set
	// it replaces the extension allow-list and matches case-sensitively.
	Pattern string

	// Extensions is the allow-list consulted when Pattern is empty.
	// Entries carry a leading dot; matching is case-insensitive.
	Extensions []string

	// Excludes holds doublestar glob patterns matched against
	// root-relative paths. Matching files are dropped and matching
	// directories are pruned whole.
	Excludes []string
}

// Result holds the outcome of a scan.
type Result struct {
	// Files are root-relative candidate paths in traversal order.
	Files []string

	// Skipped records directories that could not be read.
	Skipped []SkippedDir
}

// SkippedDir records a directory the scan could not read.
type SkippedDir struct {
	Path   string
	Reason string
}
