// Package output provides consistent CLI output formatting with colors.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/grepmcp/grepmcp/internal/ui"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	success lipgloss.Style
	warning lipgloss.Style
	errs    lipgloss.Style
}

// New creates a Writer that styles messages when out is a terminal and
// color has not been disabled via NO_COLOR.
func New(out io.Writer) *Writer {
	return NewWithColor(out, ui.IsTTY(out) && !ui.DetectNoColor())
}

// NewWithColor creates a Writer with explicit color control.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	styles := ui.GetStyles(!useColor)
	return &Writer{
		out:      out,
		useColor: useColor,
		success:  styles.Success,
		warning:  styles.Warning,
		errs:     styles.Error,
	}
}

// Status prints a status message with a prefix.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(prefix, msg string) {
	if prefix != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", prefix, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with a prefix.
func (w *Writer) Statusf(prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Status(prefix, msg)
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	if w.useColor {
		w.Status(w.success.Render("✓"), msg)
		return
	}
	w.Status("✓", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	if w.useColor {
		w.Status(w.warning.Render("warning:"), msg)
		return
	}
	w.Status("warning:", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	if w.useColor {
		w.Status(w.errs.Render("error:"), msg)
		return
	}
	w.Status("error:", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
