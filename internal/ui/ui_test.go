package ui

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestGetStyles(t *testing.T) {
	colored := GetStyles(false)
	plain := GetStyles(true)

	assert.True(t, colored.Header.GetBold())
	assert.False(t, plain.Header.GetBold())
}

func TestRunInteractive_RefusesNonTTY(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	search := func(string) (string, int, error) { return "", 0, nil }
	err = RunInteractive(f, search, InteractiveOptions{Target: "."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TTY")
}

func TestRunInteractive_RequiresSearchFunc(t *testing.T) {
	err := RunInteractive(os.Stdout, nil, InteractiveOptions{})
	assert.Error(t, err)
}

func typeKeyword(m tea.Model, keyword string) tea.Model {
	for _, r := range keyword {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestSearchModel_SearchesOnInput(t *testing.T) {
	var lastKeyword string
	search := func(keyword string) (string, int, error) {
		lastKeyword = keyword
		return "report for " + keyword, 3, nil
	}

	var m tea.Model = newSearchModel(search, "/tmp/project", "", NoColorStyles())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeKeyword(m, "todo")

	assert.Equal(t, "todo", lastKeyword)

	view := m.View()
	assert.Contains(t, view, "report for todo")
	assert.Contains(t, view, "3 matches")
	assert.Contains(t, view, "/tmp/project")
}

func TestSearchModel_InitialKeyword(t *testing.T) {
	search := func(keyword string) (string, int, error) {
		return "hit: " + keyword, 1, nil
	}

	var m tea.Model = newSearchModel(search, ".", "alpha", NoColorStyles())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	assert.Contains(t, view, "hit: alpha")
	assert.Contains(t, view, "1 match")
}

func TestSearchModel_SearchError(t *testing.T) {
	search := func(string) (string, int, error) {
		return "", 0, errors.New("file vanished")
	}

	var m tea.Model = newSearchModel(search, ".", "", NoColorStyles())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeKeyword(m, "x")

	assert.Contains(t, m.View(), "file vanished")
}

func TestSearchModel_QuitKeys(t *testing.T) {
	search := func(string) (string, int, error) { return "", 0, nil }

	var m tea.Model = newSearchModel(search, ".", "", NoColorStyles())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// "q" while typing is input, not quit.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd != nil {
		assert.NotEqual(t, tea.Quit(), cmd())
	}
	assert.Contains(t, m.View(), "q")

	// Esc releases the input, then "q" quits.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSearchModel_CtrlCAlwaysQuits(t *testing.T) {
	search := func(string) (string, int, error) { return "", 0, nil }

	var m tea.Model = newSearchModel(search, ".", "", NoColorStyles())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
