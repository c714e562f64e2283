package search

import (
	"fmt"
	"strings"
)

// Report formatting. Pure functions: no I/O, no clock, identical input
// produces byte-identical output.

// FormatFileResult renders a single-file search report.
//
// With matches the report is a header, a blank line, then one block per
// match: a "--- Match k (Line n) ---" rule followed by the context
// window, one line per row. The matched row is marked ">>>", context
// rows are indented to the same width, and line numbers are right-
// aligned to width 4. Each block ends with a blank line.
func FormatFileResult(result *FileResult, keyword string) string {
	if result.MatchCount == 0 {
		return fmt.Sprintf("No matches found for '%s' in file '%s'.", keyword, result.FilePath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match(es) for '%s' in '%s':\n\n", result.MatchCount, keyword, result.FilePath)

	for k, m := range result.Matches {
		fmt.Fprintf(&b, "--- Match %d (Line %d) ---\n", k+1, m.LineNumber)
		b.WriteString(strings.Join(contextRows(m), "\n"))
		b.WriteString("\n\n")
	}

	return b.String()
}

// contextRows renders the full window of a match in file order:
// ContextBefore, the matched line, ContextAfter.
func contextRows(m Match) []string {
	rows := make([]string, 0, len(m.ContextBefore)+1+len(m.ContextAfter))
	for _, c := range m.ContextBefore {
		rows = append(rows, fmt.Sprintf("%s %4d: %s", "   ", c.LineNumber, c.Text))
	}
	rows = append(rows, fmt.Sprintf("%s %4d: %s", ">>>", m.LineNumber, m.LineText))
	for _, c := range m.ContextAfter {
		rows = append(rows, fmt.Sprintf("%s %4d: %s", "   ", c.LineNumber, c.Text))
	}
	return rows
}

// FormatDirectoryResult renders a directory search report.
//
// With matches the report is a header naming the total match and file
// counts, a blank line, then one block per file: "📄 <relpath> (<m>
// match(es))" followed by "   Line <n>: <text>" rows, then a blank
// line. Files appear in traversal order.
func FormatDirectoryResult(result *DirectoryResult, keyword string) string {
	if len(result.Files) == 0 {
		return fmt.Sprintf("No matches found for '%s' in directory '%s'.", keyword, result.DirectoryPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match(es) for '%s' in %d file(s):\n\n",
		result.TotalMatches, keyword, len(result.Files))

	for _, f := range result.Files {
		fmt.Fprintf(&b, "📄 %s (%d match(es))\n", f.FilePath, f.MatchCount)
		for _, m := range f.Matches {
			fmt.Fprintf(&b, "   Line %d: %s\n", m.LineNumber, m.LineText)
		}
		b.WriteString("\n")
	}

	return b.String()
}
