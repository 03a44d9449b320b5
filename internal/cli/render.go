// Package cli renders operator command output for the terminal.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(ColorGreen)
	errStyle    = lipgloss.NewStyle().Foreground(ColorRed)
)

// Table is a bordered table. Rows whose Muted flag is set are dimmed.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Muted   []bool
}

// RenderTitle renders a boxed title line.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 2)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t, or an empty string when it has neither headers nor rows.
func RenderTable(t Table) string {
	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return ""
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(t.Muted) && t.Muted[row]:
				return mutedStyle
			}
			return cellStyle
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.Render())
	return b.String()
}

// RenderKV renders aligned "label  value" lines.
func RenderKV(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if w := lipgloss.Width(p[0]); w > width {
			width = w
		}
	}
	label := lipgloss.NewStyle().Foreground(ColorMuted).Width(width + 2)
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, label.Render(p[0])+titleStyle.Render(p[1]))
	}
	return strings.Join(lines, "\n")
}

// Status colors an outcome word green when ok, red otherwise.
func Status(text string, ok bool) string {
	if ok {
		return okStyle.Render(text)
	}
	return errStyle.Render(text)
}
