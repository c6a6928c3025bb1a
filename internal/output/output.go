// Package output prints short CLI status messages.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer prints status lines with a leading marker.
type Writer struct {
	out     io.Writer
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// New creates a Writer. Markers are colored unless noColor is set.
func New(out io.Writer, noColor bool) *Writer {
	w := &Writer{
		out:     out,
		success: lipgloss.NewStyle(),
		warning: lipgloss.NewStyle(),
		failure: lipgloss.NewStyle(),
		dim:     lipgloss.NewStyle(),
	}
	if !noColor {
		w.success = w.success.Foreground(lipgloss.Color("154")).Bold(true)
		w.warning = w.warning.Foreground(lipgloss.Color("220")).Bold(true)
		w.failure = w.failure.Foreground(lipgloss.Color("196")).Bold(true)
		w.dim = w.dim.Foreground(lipgloss.Color("245"))
	}
	return w
}

// Status prints msg after marker. An empty marker indents the line.
// Write errors are ignored for console output.
func (w *Writer) Status(marker, msg string) {
	if marker == "" {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", marker, msg)
}

// Statusf is Status with formatting.
func (w *Writer) Statusf(marker, format string, args ...any) {
	w.Status(marker, fmt.Sprintf(format, args...))
}

// Success prints an OK line.
func (w *Writer) Success(msg string) {
	w.Status(w.success.Render("OK"), msg)
}

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a WARN line.
func (w *Writer) Warning(msg string) {
	w.Status(w.warning.Render("WARN"), msg)
}

// Warningf is Warning with formatting.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an ERROR line.
func (w *Writer) Error(msg string) {
	w.Status(w.failure.Render("ERROR"), msg)
}

// Hint prints a dimmed, indented line.
func (w *Writer) Hint(msg string) {
	w.Status("", w.dim.Render(msg))
}

// Code prints content indented between blank lines.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
