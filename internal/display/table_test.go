package display

import (
	"strings"
	"testing"

	"github.com/smokyabdulrahman/namaz/internal/stats"
)

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render() with no headers = %q, want empty", got)
	}
}

func TestTable_Render(t *testing.T) {
	withColor(t, false)

	tbl := NewTable("Date", "Fajr", "Isha")
	tbl.AddRow("Mon 01 Mar", "05:06", "19:28")
	tbl.AddRow("Tue 02 Mar", "05:05")

	got := tbl.Render()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Render() produced %d lines, want 4:\n%s", len(lines), got)
	}
	if lines[0] != "  Date        Fajr   Isha" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "  ──────────  ─────  ─────" {
		t.Errorf("rule = %q", lines[1])
	}
	if lines[3] != "  Tue 02 Mar  05:05" {
		t.Errorf("short row = %q, want trailing padding trimmed", lines[3])
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestTable_Highlight(t *testing.T) {
	withColor(t, true)

	tbl := NewTable("Day")
	tbl.AddRow("today")
	tbl.AddRow("tomorrow")
	tbl.Highlight(0)

	got := tbl.Render()
	if !strings.Contains(got, Accent("today")) {
		t.Error("highlighted row should use the accent color")
	}
	if strings.Contains(got, Accent("tomorrow")) {
		t.Error("only one row should be highlighted")
	}
}

func TestTable_WideRunes(t *testing.T) {
	withColor(t, false)

	tbl := NewTable("Name", "Arabic")
	tbl.AddRow("Fajr", "الفجر")
	tbl.AddRow("Maghrib", "المغرب")

	lines := strings.Split(tbl.Render(), "\n")
	if !strings.HasPrefix(lines[2], "  Fajr     الفجر") {
		t.Errorf("row aligned by runes = %q", lines[2])
	}
}

func TestBar(t *testing.T) {
	withColor(t, false)

	tests := []struct {
		value, total, width int
		want                string
	}{
		{0, 10, 5, "░░░░░"},
		{5, 10, 4, "██░░"},
		{10, 10, 3, "███"},
		{12, 10, 3, "███"},
		{-1, 10, 2, "░░"},
		{1, 0, 4, ""},
	}
	for _, tt := range tests {
		if got := Bar(tt.value, tt.total, tt.width); got != tt.want {
			t.Errorf("Bar(%d, %d, %d) = %q, want %q", tt.value, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(7, 35); got != "20%" {
		t.Errorf("Percent(7, 35) = %q", got)
	}
	if got := Percent(1, 0); got != "0%" {
		t.Errorf("Percent(1, 0) = %q", got)
	}
}

func TestHeatmap(t *testing.T) {
	withColor(t, false)

	h := stats.Heatmap{Year: 2026, Month: 3, Pad: 0}
	for d := 1; d <= 31; d++ {
		c := stats.Cell{Day: d, Count: d % 6, Tier: stats.TierFor(d % 6)}
		if d > 11 {
			c.Count, c.Tier, c.Future = 0, stats.TierNone, true
		}
		h.Cells = append(h.Cells, c)
	}

	got := Heatmap(h)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if lines[0] != "  March 2026" {
		t.Errorf("title = %q", lines[0])
	}
	if lines[1] != "  Su Mo Tu We Th Fr Sa" {
		t.Errorf("weekday header = %q", lines[1])
	}
	if lines[2] != "   1  2  3  4  5  0  1" {
		t.Errorf("first week = %q", lines[2])
	}
	// 31 days starting on Sunday fill four full weeks plus three days.
	if n := len(lines); n != 2+5+1 {
		t.Errorf("heatmap has %d lines, want 8:\n%s", n, got)
	}
	if !strings.Contains(lines[3], " ·") {
		t.Errorf("future days should render as dots: %q", lines[3])
	}
}

func TestHeatmap_Padding(t *testing.T) {
	withColor(t, false)

	h := stats.Heatmap{Year: 2026, Month: 4, Pad: 3}
	for d := 1; d <= 30; d++ {
		h.Cells = append(h.Cells, stats.Cell{Day: d})
	}
	lines := strings.Split(Heatmap(h), "\n")
	if lines[2] != "            0  0  0  0" {
		t.Errorf("padded first week = %q", lines[2])
	}
}
