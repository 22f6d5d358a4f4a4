package stats

import (
	"time"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Tier is a heatmap intensity.
type Tier int

const (
	TierNone    Tier = iota // 0 prayers
	TierLow                 // 1-2
	TierHigh                // 3-4
	TierPerfect             // all 5
)

// TierFor buckets a completion count.
func TierFor(count int) Tier {
	switch {
	case count <= 0:
		return TierNone
	case count <= 2:
		return TierLow
	case count <= 4:
		return TierHigh
	}
	return TierPerfect
}

// Cell is one day of the heatmap.
type Cell struct {
	Date  string `json:"date"`
	Day   int    `json:"day"`
	Count int    `json:"count"`
	Tier  Tier   `json:"tier"`
	// Future is set for days after today.
	Future bool `json:"future,omitempty"`
}

// Heatmap covers the calendar month containing today. Pad is the number of
// empty leading cells so the first day lands on its weekday column, with
// weeks starting on Sunday.
type Heatmap struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Pad   int        `json:"pad"`
	Cells []Cell     `json:"cells"`
}

// NewHeatmap builds the heatmap for today's month.
func NewHeatmap(records []model.PrayerRecord, today time.Time) Heatmap {
	idx := NewIndex(records)
	t := dayStart(today)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)

	h := Heatmap{
		Year:  t.Year(),
		Month: t.Month(),
		Pad:   int(first.Weekday()),
		Cells: make([]Cell, 0, last.Day()),
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		n := idx.Count(d)
		h.Cells = append(h.Cells, Cell{
			Date:   d.Format(model.DateLayout),
			Day:    d.Day(),
			Count:  n,
			Tier:   TierFor(n),
			Future: d.After(t),
		})
	}
	return h
}
