package display

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Table renders aligned columns with a bold header and a dim rule.
type Table struct {
	headers   []string
	rows      [][]string
	highlight int
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers, highlight: -1}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Highlight marks row i (0-based) with the accent color. -1 clears it.
func (t *Table) Highlight(i int) { t.highlight = i }

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if n := utf8.RuneCountInString(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	sb.WriteString("  " + Dim(strings.Join(rule, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		if i == t.highlight {
			line = Accent(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := w - utf8.RuneCountInString(cell)
		if pad < 0 {
			pad = 0
		}
		parts[i] = cell + strings.Repeat(" ", pad)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// Bar draws value out of total as a block bar of the given width.
func Bar(value, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	value = min(max(value, 0), total)
	filled := value * width / total
	return Green(strings.Repeat("█", filled)) + Gray(strings.Repeat("░", width-filled))
}

// Percent formats part/whole as "NN%".
func Percent(part, whole int) string {
	if whole <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", part*100/whole)
}
