package display

import (
	"fmt"
	"strings"

	"github.com/smokyabdulrahman/namaz/internal/stats"
)

var weekdayHeader = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Heatmap renders a month as a calendar grid, weeks starting on Sunday.
// Each day shows its completion count shaded by tier; future days are
// blank dots.
func Heatmap(h stats.Heatmap) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s\n", Bold(fmt.Sprintf("%s %d", h.Month, h.Year)))
	sb.WriteString("  " + Dim(strings.Join(weekdayHeader, " ")) + "\n")

	col := 0
	line := make([]string, 0, 7)
	flush := func() {
		sb.WriteString("  " + strings.Join(line, " ") + "\n")
		line = line[:0]
		col = 0
	}

	for i := 0; i < h.Pad; i++ {
		line = append(line, "  ")
		col++
	}
	for _, c := range h.Cells {
		cell := Gray(" ·")
		if !c.Future {
			cell = Shade(c.Tier, fmt.Sprintf("%2d", c.Count))
		}
		line = append(line, cell)
		col++
		if col == 7 {
			flush()
		}
	}
	if col > 0 {
		flush()
	}

	sb.WriteString("  " + Dim("0") + " " + Shade(stats.TierLow, "1-2") + " " +
		Shade(stats.TierHigh, "3-4") + " " + Shade(stats.TierPerfect, "5") + "\n")
	return sb.String()
}
