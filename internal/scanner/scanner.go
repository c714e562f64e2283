package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// Scan walks the tree rooted at root and returns the candidate files in
// traversal order. The caller is expected to have validated that root
// exists and is a directory; a directory that cannot be read mid-walk
// (the root included) is recorded in Skipped and the walk continues.
func Scan(root string, opts Options) (*Result, error) {
	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, gerrors.InvalidArgument(fmt.Sprintf("invalid exclude pattern '%s'", pattern))
		}
	}

	allow := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allow[strings.ToLower(ext)] = struct{}{}
	}

	result := &Result{}

	// Pending directories, relative to root. Popping from the tail and
	// pushing subdirectories in reverse keeps the walk depth-first in
	// name order, with each directory's files listed before its
	// subdirectories.
	pending := []string{""}
	for len(pending) > 0 {
		rel := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := os.ReadDir(filepath.Join(root, rel))
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedDir{
				Path:   relLabel(rel),
				Reason: readFailure(relLabel(rel), err),
			})
			continue
		}

		var subdirs []string
		for _, entry := range entries {
			entryRel := filepath.Join(rel, entry.Name())
			if excluded(entryRel, opts.Excludes) {
				continue
			}
			if entry.IsDir() {
				subdirs = append(subdirs, entryRel)
				continue
			}
			// Symlinks and other non-regular entries are never candidates.
			if !entry.Type().IsRegular() {
				continue
			}
			if eligible(entry.Name(), opts.Pattern, allow) {
				result.Files = append(result.Files, entryRel)
			}
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			pending = append(pending, subdirs[i])
		}
	}

	return result, nil
}

// eligible reports whether a file name passes the name-level filter:
// the literal suffix pattern when one is set, the extension allow-list
// otherwise.
func eligible(name, pattern string, allow map[string]struct{}) bool {
	if pattern != "" {
		return strings.HasSuffix(name, pattern)
	}
	// Leading dots belong to the name, not the extension: ".gitignore"
	// has none.
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	if ext == "" {
		return false
	}
	_, ok := allow[strings.ToLower(ext)]
	return ok
}

// excluded reports whether relPath matches any exclude glob. Patterns
// were validated up front, so Match cannot fail here.
func excluded(relPath string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(relPath)
	for _, pattern := range excludes {
		if matched, _ := doublestar.Match(pattern, slashPath); matched {
			return true
		}
	}
	return false
}

// relLabel names a directory in skip records; the root itself is ".".
func relLabel(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}

func readFailure(rel string, err error) string {
	if os.IsPermission(err) {
		return fmt.Sprintf("permission denied: cannot read '%s'", rel)
	}
	return err.Error()
}
