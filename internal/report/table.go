// Package report renders the result matrix: an aligned console table, a
// CSV export, and an optional standalone HTML report.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/zaptime/internal/display"
	"github.com/backmassage/zaptime/internal/results"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tableMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tableOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	tableFailStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// PrintTable renders the matrix as an aligned console table: one row per
// channel, one column per profile-run, plus an average row over the
// successful tunes of each column.
func PrintTable(w io.Writer, m *results.Matrix) {
	if m.Empty() {
		fmt.Fprintln(w, "No results.")
		return
	}

	cols := m.ColumnKeys()
	channels := m.Channels()

	profiles := make([]string, len(cols))
	stamps := make([]string, len(cols))
	for i, key := range cols {
		parts := strings.SplitN(key, "\n", 2)
		profiles[i] = parts[0]
		if len(parts) == 2 {
			stamps[i] = parts[1]
		}
	}

	// Column widths from plain text; styling is applied after padding so
	// ANSI sequences never skew the layout.
	chanWidth := lipgloss.Width("Channel")
	for _, ch := range channels {
		chanWidth = max(chanWidth, lipgloss.Width(ch))
	}
	chanWidth = max(chanWidth, lipgloss.Width("Average"))

	colWidths := make([]int, len(cols))
	for i, key := range cols {
		colWidths[i] = max(lipgloss.Width(profiles[i]), lipgloss.Width(stamps[i]))
		for _, ch := range channels {
			if row, ok := m.Cell(ch, key); ok {
				colWidths[i] = max(colWidths[i], lipgloss.Width(cellText(row)))
			}
		}
		if avg, ok := m.Average(key); ok {
			colWidths[i] = max(colWidths[i], lipgloss.Width(display.FormatSeconds(avg)))
		}
	}

	// Header: profile names over run timestamps.
	line := []string{tableHeaderStyle.Render(pad("Channel", chanWidth))}
	for i := range cols {
		line = append(line, tableHeaderStyle.Render(pad(profiles[i], colWidths[i])))
	}
	fmt.Fprintln(w, strings.Join(line, "  "))

	line = []string{pad("", chanWidth)}
	for i := range cols {
		line = append(line, tableMutedStyle.Render(pad(stamps[i], colWidths[i])))
	}
	fmt.Fprintln(w, strings.Join(line, "  "))

	for _, ch := range channels {
		line = []string{pad(ch, chanWidth)}
		for i, key := range cols {
			row, ok := m.Cell(ch, key)
			if !ok {
				line = append(line, pad("", colWidths[i]))
				continue
			}
			cell := pad(cellText(row), colWidths[i])
			if row.Outcome.Tuned {
				line = append(line, tableOKStyle.Render(cell))
			} else {
				line = append(line, tableFailStyle.Render(cell))
			}
		}
		fmt.Fprintln(w, strings.Join(line, "  "))
	}

	line = []string{tableHeaderStyle.Render(pad("Average", chanWidth))}
	for i, key := range cols {
		text := ""
		if avg, ok := m.Average(key); ok {
			text = display.FormatSeconds(avg)
		}
		line = append(line, tableHeaderStyle.Render(pad(text, colWidths[i])))
	}
	fmt.Fprintln(w, strings.Join(line, "  "))
}

func cellText(row results.Row) string {
	return display.FormatCell(row.Outcome.Tuned, row.Outcome.Elapsed, row.Outcome.Kind.String())
}

func pad(s string, width int) string {
	if diff := width - lipgloss.Width(s); diff > 0 {
		return s + strings.Repeat(" ", diff)
	}
	return s
}
