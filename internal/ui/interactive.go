package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchFunc runs one search for the given keyword and returns the
// formatted report plus the total match count. Searches are synchronous;
// the model re-runs the search on every keystroke.
type SearchFunc func(keyword string) (report string, matches int, err error)

// InteractiveOptions configures the interactive search session.
type InteractiveOptions struct {
	// Target is the file or directory being searched, shown in the header.
	Target string

	// InitialKeyword pre-fills the input and runs a first search.
	InitialKeyword string

	// NoColor disables the lime palette.
	NoColor bool
}

// RunInteractive starts the full-screen search session on out. It refuses
// to start when out is not a terminal.
func RunInteractive(out *os.File, search SearchFunc, opts InteractiveOptions) error {
	if search == nil {
		return fmt.Errorf("search function is required")
	}
	if !IsTTY(out) {
		return fmt.Errorf("interactive mode requires a terminal (stdout is not a TTY)")
	}

	noColor := opts.NoColor || DetectNoColor()
	model := newSearchModel(search, opts.Target, opts.InitialKeyword, GetStyles(noColor))

	program := tea.NewProgram(model,
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

// searchModel is the bubbletea model for interactive search.
type searchModel struct {
	search  SearchFunc
	target  string
	styles  Styles
	input   textinput.Model
	results viewport.Model

	width   int
	height  int
	ready   bool
	matches int
	errText string
}

func newSearchModel(search SearchFunc, target, initial string, styles Styles) *searchModel {
	ti := textinput.New()
	ti.Placeholder = "type a keyword"
	ti.Prompt = "> "
	ti.PromptStyle = styles.Prompt
	ti.Focus()
	if initial != "" {
		ti.SetValue(initial)
	}

	return &searchModel{
		search: search,
		target: target,
		styles: styles,
		input:  ti,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// Esc blurs the input so "q" is available for quitting;
			// "/" focuses it again.
			m.input.Blur()
			return m, nil

		case "q":
			if !m.input.Focused() {
				return m, tea.Quit
			}

		case "/":
			if !m.input.Focused() {
				m.input.Focus()
				return m, textinput.Blink
			}

		case "up", "down", "pgup", "pgdown", "home", "end":
			// Scroll keys always go to the results pane; the input is a
			// single line and has no use for them.
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

		if m.input.Focused() {
			before := m.input.Value()
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			if m.input.Value() != before {
				m.runSearch()
			}
			return m, cmd
		}

		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Header, input line, and status bar take four rows.
		viewHeight := msg.Height - 4
		if viewHeight < 1 {
			viewHeight = 1
		}

		if !m.ready {
			m.results = viewport.New(msg.Width, viewHeight)
			m.ready = true
			m.runSearch()
		} else {
			m.results.Width = msg.Width
			m.results.Height = viewHeight
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runSearch re-runs the search with the current keyword and replaces the
// viewport content.
func (m *searchModel) runSearch() {
	keyword := strings.TrimSpace(m.input.Value())
	if keyword == "" {
		m.matches = 0
		m.errText = ""
		if m.ready {
			m.results.SetContent(m.styles.Dim.Render("Start typing to search."))
		}
		return
	}

	report, matches, err := m.search(keyword)
	if err != nil {
		m.matches = 0
		m.errText = err.Error()
		if m.ready {
			m.results.SetContent(m.styles.Error.Render(err.Error()))
		}
		return
	}

	m.matches = matches
	m.errText = ""
	if m.ready {
		m.results.SetContent(report)
		m.results.GotoTop()
	}
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if !m.ready {
		return "loading..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		m.styles.Header.Render("grepmcp"),
		m.styles.Label.Render("  searching "+m.target),
	)

	var status string
	switch {
	case m.errText != "":
		status = m.styles.Error.Render("error: " + m.errText)
	case strings.TrimSpace(m.input.Value()) == "":
		status = m.styles.Status.Render("waiting for a keyword")
	case m.matches == 1:
		status = m.styles.Status.Render("1 match")
	default:
		status = m.styles.Status.Render(fmt.Sprintf("%d matches", m.matches))
	}

	var help string
	if m.input.Focused() {
		help = m.styles.Dim.Render("esc release input · ctrl+c quit")
	} else {
		help = m.styles.Dim.Render("/ edit keyword · q quit · arrows scroll")
	}

	statusBar := lipgloss.JoinHorizontal(lipgloss.Left, status, m.styles.Dim.Render("  |  "), help)

	return strings.Join([]string{
		header,
		m.input.View(),
		m.results.View(),
		statusBar,
	}, "\n")
}
