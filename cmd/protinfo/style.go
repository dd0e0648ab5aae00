package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
)

func statusLine(w io.Writer, style lipgloss.Style, label string, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", style.Render(label), fmt.Sprintf(format, args...))
}

// preview renders a report for the terminal.
func preview(w io.Writer, markdown string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
