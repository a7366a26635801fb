// Package ux renders walkscale's terminal output: styled messages, the
// sweep progress line and fit summaries.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorPrimary = lipgloss.Color("#20B9B4")
	ColorMuted   = lipgloss.Color("#5C7A84")
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorCounter = lipgloss.Color("#D670D6")
)

// Styles holds the lipgloss styles shared by all output.
var Styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Counter lipgloss.Style
	Box     lipgloss.Style

	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Label:   lipgloss.NewStyle().Foreground(ColorPrimary),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Counter: lipgloss.NewStyle().Foreground(ColorCounter),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1),

	StatusOK:    lipgloss.NewStyle().SetString("✓").Foreground(ColorSuccess),
	StatusError: lipgloss.NewStyle().SetString("✗").Foreground(ColorError),
}

// Errorf prints a styled error line to w.
func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.StatusError.String()+" "+Styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints a styled warning line to w.
func Warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Successf prints a styled success line to w.
func Successf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.StatusOK.String()+" "+fmt.Sprintf(format, args...))
}
