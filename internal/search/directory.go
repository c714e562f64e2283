package search

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/grepmcp/grepmcp/internal/config"
	gerrors "github.com/grepmcp/grepmcp/internal/errors"
	"github.com/grepmcp/grepmcp/internal/scanner"
)

// SearchDirectory searches every eligible file under dir and returns the
// files that matched, in traversal order. Context lines are not
// collected here; directory reports show the matched lines only.
//
// Individual files that cannot be read or decoded are recorded in
// Skipped and the search continues, so a tree with a few unreadable
// files still yields results. Only problems with dir itself fail the
// whole call.
func (s *Searcher) SearchDirectory(ctx context.Context, dir, keyword string, opts DirectoryOptions) (*DirectoryResult, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, classifyPathError(dir, "directory", err)
	}
	if !info.IsDir() {
		return nil, gerrors.NotADirectory(dir)
	}

	exts := opts.Extensions
	if exts == nil {
		exts = config.DefaultTextExtensions()
	}

	scanRes, err := scanner.Scan(dir, scanner.Options{
		Pattern:    opts.FilePattern,
		Extensions: exts,
		Excludes:   opts.Excludes,
	})
	if err != nil {
		return nil, err
	}

	folded := foldKeyword(keyword, opts.CaseSensitive)
	result := &DirectoryResult{DirectoryPath: dir, Files: []FileResult{}}
	for _, skip := range scanRes.Skipped {
		s.logger.Warn("skipping unreadable directory",
			"path", skip.Path,
			"reason", skip.Reason)
		result.Skipped = append(result.Skipped, SkippedFile{Path: skip.Path, Reason: skip.Reason})
	}

	for _, rel := range scanRes.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines, err := loadLines(filepath.Join(dir, rel))
		if err != nil {
			reason := skipReason(err)
			s.logger.Warn("skipping unreadable file",
				"path", rel,
				"reason", reason)
			result.Skipped = append(result.Skipped, SkippedFile{Path: rel, Reason: reason})
			continue
		}

		fr := FileResult{FilePath: rel}
		for i, line := range lines {
			if matchLine(line, folded, opts.CaseSensitive) {
				fr.Matches = append(fr.Matches, Match{LineNumber: i + 1, LineText: line})
			}
		}
		if len(fr.Matches) == 0 {
			continue
		}
		fr.MatchCount = len(fr.Matches)
		result.Files = append(result.Files, fr)
		result.TotalMatches += fr.MatchCount
	}

	return result, nil
}

// skipReason extracts the short message from a classified error for the
// Skipped record.
func skipReason(err error) string {
	var ge *gerrors.GrepError
	if stderrors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}
