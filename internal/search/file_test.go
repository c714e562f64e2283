package search

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// writeFile creates a file with the given content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// SearchFile: matching
// =============================================================================

func TestSearchFile_SingleMatchWithContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.py",
		"import os\n"+
			"import sys\n"+
			"\n"+
			"def main():\n"+
			"    print('hello')\n"+
			"\n"+
			"main()\n")

	result, err := NewSearcher(nil).SearchFile(path, "def main", FileOptions{ContextLines: 2})
	require.NoError(t, err)

	assert.Equal(t, path, result.FilePath)
	assert.Equal(t, 1, result.MatchCount)
	require.Len(t, result.Matches, 1)

	m := result.Matches[0]
	assert.Equal(t, 4, m.LineNumber)
	assert.Equal(t, "def main():", m.LineText)
	assert.Equal(t, []ContextLine{
		{LineNumber: 2, Text: "import sys"},
		{LineNumber: 3, Text: ""},
	}, m.ContextBefore)
	assert.Equal(t, []ContextLine{
		{LineNumber: 5, Text: "    print('hello')"},
		{LineNumber: 6, Text: ""},
	}, m.ContextAfter)
}

func TestSearchFile_CaseInsensitiveByDefault(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log.txt",
		"WARNING: disk full\nall good\nWarning ignored\n")

	result, err := NewSearcher(nil).SearchFile(path, "warning", FileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.MatchCount)
	assert.Equal(t, 1, result.Matches[0].LineNumber)
	assert.Equal(t, 3, result.Matches[1].LineNumber)
}

func TestSearchFile_CaseSensitive(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log.txt",
		"WARNING: disk full\nall good\nWarning ignored\n")

	result, err := NewSearcher(nil).SearchFile(path, "Warning", FileOptions{CaseSensitive: true})
	require.NoError(t, err)

	require.Equal(t, 1, result.MatchCount)
	assert.Equal(t, 3, result.Matches[0].LineNumber)
}

func TestSearchFile_NoMatches(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "nothing to see\nhere\n")

	result, err := NewSearcher(nil).SearchFile(path, "absent", FileOptions{ContextLines: 2})
	require.NoError(t, err)

	assert.Equal(t, 0, result.MatchCount)
	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
}

func TestSearchFile_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.txt", "")

	result, err := NewSearcher(nil).SearchFile(path, "anything", FileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.MatchCount)
}

func TestSearchFile_MatchesAscendAndCountAgrees(t *testing.T) {
	path := writeFile(t, t.TempDir(), "b.txt",
		"x\nmatch one\nx\nmatch two\nmatch three\nx\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{})
	require.NoError(t, err)

	assert.Equal(t, len(result.Matches), result.MatchCount)
	for i := 1; i < len(result.Matches); i++ {
		assert.Greater(t, result.Matches[i].LineNumber, result.Matches[i-1].LineNumber)
	}
}

// =============================================================================
// SearchFile: context windows
// =============================================================================

func TestSearchFile_ContextClampedAtFileStart(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.txt", "match here\nsecond\nthird\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{ContextLines: 2})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Empty(t, m.ContextBefore)
	assert.Equal(t, []ContextLine{
		{LineNumber: 2, Text: "second"},
		{LineNumber: 3, Text: "third"},
	}, m.ContextAfter)
}

func TestSearchFile_ContextClampedAtFileEnd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "d.txt", "first\nsecond\nmatch here\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{ContextLines: 5})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, []ContextLine{
		{LineNumber: 1, Text: "first"},
		{LineNumber: 2, Text: "second"},
	}, m.ContextBefore)
	assert.Empty(t, m.ContextAfter)
}

func TestSearchFile_ZeroContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "e.txt", "a\nmatch\nb\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{ContextLines: 0})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Empty(t, result.Matches[0].ContextBefore)
	assert.Empty(t, result.Matches[0].ContextAfter)
}

func TestSearchFile_OverlappingWindowsKeptSeparate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", "match a\nmatch b\ntail\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{ContextLines: 1})
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)

	// Each match carries its own window; the neighbor shows up as
	// context even though it matched in its own right.
	assert.Equal(t, []ContextLine{{LineNumber: 2, Text: "match b"}}, result.Matches[0].ContextAfter)
	assert.Equal(t, []ContextLine{{LineNumber: 1, Text: "match a"}}, result.Matches[1].ContextBefore)
}

// =============================================================================
// SearchFile: validation and error paths
// =============================================================================

func TestSearchFile_EmptyKeywordBeforeIO(t *testing.T) {
	// The path does not exist; the keyword check must fire first.
	_, err := NewSearcher(nil).SearchFile("/no/such/file.txt", "", FileOptions{})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodeInvalidArgument, gerrors.GetCode(err))
}

func TestSearchFile_NegativeContextLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "g.txt", "content\n")

	_, err := NewSearcher(nil).SearchFile(path, "content", FileOptions{ContextLines: -1})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodeInvalidArgument, gerrors.GetCode(err))
}

func TestSearchFile_NotFound(t *testing.T) {
	_, err := NewSearcher(nil).SearchFile(filepath.Join(t.TempDir(), "missing.txt"), "kw", FileOptions{})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodePathNotFound, gerrors.GetCode(err))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestSearchFile_DirectoryRejected(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSearcher(nil).SearchFile(dir, "kw", FileOptions{})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodeNotAFile, gerrors.GetCode(err))
}

func TestSearchFile_BinaryRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.txt")
	require.NoError(t, os.WriteFile(path, []byte("text\x00more"), 0o644))

	_, err := NewSearcher(nil).SearchFile(path, "text", FileOptions{})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodeFileDecode, gerrors.GetCode(err))
}

func TestSearchFile_NulBeyondSniffLimitStillText(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, binarySniffLimit)
	for i := range content {
		content[i] = 'a'
	}
	content = append(content, []byte("\nmatch line\n\x00")...)
	path := filepath.Join(dir, "mostly-text.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchCount)
}

func TestSearchFile_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission bits not enforced")
	}

	path := writeFile(t, t.TempDir(), "locked.txt", "secret\n")
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	_, err := NewSearcher(nil).SearchFile(path, "secret", FileOptions{})
	require.Error(t, err)
	assert.Equal(t, gerrors.ErrCodeFilePermission, gerrors.GetCode(err))
}

func TestSearchFile_SymlinkFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevation on windows")
	}

	dir := t.TempDir()
	target := writeFile(t, dir, "target.txt", "find me\n")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	result, err := NewSearcher(nil).SearchFile(link, "find me", FileOptions{})
	require.NoError(t, err)

	// The result reports the path the caller asked about.
	assert.Equal(t, link, result.FilePath)
	assert.Equal(t, 1, result.MatchCount)
}

func TestSearchFile_RelativePathPreserved(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rel.txt", "needle\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	result, err := NewSearcher(nil).SearchFile("rel.txt", "needle", FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "rel.txt", result.FilePath)
}

// =============================================================================
// Line splitting via real files
// =============================================================================

func TestSearchFile_CRLFLinesTrimmed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.txt", "first\r\nmatch line\r\nlast\r\n")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{ContextLines: 1})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, "match line", m.LineText)
	assert.Equal(t, []ContextLine{{LineNumber: 1, Text: "first"}}, m.ContextBefore)
	assert.Equal(t, []ContextLine{{LineNumber: 3, Text: "last"}}, m.ContextAfter)
}

func TestSearchFile_NoTrailingNewline(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nonl.txt", "one\ntwo match")

	result, err := NewSearcher(nil).SearchFile(path, "match", FileOptions{})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 2, result.Matches[0].LineNumber)
	assert.Equal(t, "two match", result.Matches[0].LineText)
}
