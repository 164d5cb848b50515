package analysis

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// DefaultPreviewRows is how many rows Preview shows from each end of a long frame.
const DefaultPreviewRows = 5

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Preview renders the head and tail of f as a terminal table followed by a
// "[rows x columns]" footer. Frames with at most 2*n rows are shown whole.
func Preview(f *Frame, n int) string {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	header := make([]string, len(f.Header))
	for i, h := range f.Header {
		header[i] = safeName(h)
	}
	var rows [][]string
	if len(f.Rows) <= 2*n {
		rows = cellRows(f.Rows)
	} else {
		rows = append(rows, cellRows(f.Rows[:n])...)
		gap := make([]string, len(f.Header))
		for i := range gap {
			gap[i] = "..."
		}
		rows = append(rows, gap)
		rows = append(rows, cellRows(f.Rows[len(f.Rows)-n:])...)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(header...).
		Rows(rows...)

	var b strings.Builder
	if f.Name != "" {
		b.WriteString(f.Name)
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	b.WriteString(fmt.Sprintf("\n[%d rows x %d columns]\n", len(f.Rows), len(f.Header)))
	return b.String()
}

// maxCellRunes bounds the width of a preview cell.
const maxCellRunes = 80

func cellRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		row := make([]string, len(r))
		for j, v := range r {
			if r := []rune(v); len(r) > maxCellRunes {
				v = string(r[:maxCellRunes-3]) + "..."
			}
			row[j] = safeVal(v)
		}
		out[i] = row
	}
	return out
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(s, "\n", " ") }
