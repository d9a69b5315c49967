package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows under a header. Column widths fit the widest cell.
type Table struct {
	Headers []string
	Rows    [][]string
	Marked  int // row drawn highlighted, -1 for none
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Marked: -1}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) widths() []int {
	w := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		w[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range w {
			if i < len(row) && lipgloss.Width(row[i]) > w[i] {
				w[i] = lipgloss.Width(row[i])
			}
		}
	}
	return w
}

// Render returns the table as a string.
func (t *Table) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	widths := t.widths()

	pad := func(s string, width int) string {
		if n := lipgloss.Width(s); n < width {
			return s + strings.Repeat(" ", width-n)
		}
		return s
	}

	var sb strings.Builder
	cells := make([]string, len(widths))
	for i, h := range t.Headers {
		cells[i] = headerStyle.Render(pad(h, widths[i]))
	}
	sb.WriteString(strings.Join(cells, "  ") + "\n")

	for i, w := range widths {
		cells[i] = StyleMeta.Render(strings.Repeat("─", w))
	}
	sb.WriteString(strings.Join(cells, "  ") + "\n")

	for r, row := range t.Rows {
		style := cellStyle
		if r == t.Marked {
			style = StyleSelected
		}
		for i, w := range widths {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cells[i] = style.Render(pad(val, w))
		}
		sb.WriteString(strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders key/value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	keyWidth := 0
	for _, p := range pairs {
		if n := len(p[0]) + 1; n > keyWidth {
			keyWidth = n
		}
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-*s", keyWidth, p[0]+":"))
		sb.WriteString(key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimRight(sb.String(), "\n"))
}
