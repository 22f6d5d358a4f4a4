package tracker

import (
	"time"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Event describes a confirmed check-off, as seen by achievement rules.
type Event struct {
	Prayer model.Prayer
	Day    time.Time
	Record model.PrayerRecord
	Streak int
	Total  int
}

// Rule unlocks an achievement when Met returns true.
type Rule struct {
	ID  string
	Met func(Event) bool
}

// DefaultRules matches the seeded achievement catalog.
var DefaultRules = []Rule{
	{ID: "first_step", Met: func(Event) bool { return true }},
	{ID: "high_five", Met: func(e Event) bool { return e.Record.Perfect() }},
	{ID: "week_warrior", Met: func(e Event) bool { return e.Streak >= 7 }},
	{ID: "steadfast", Met: func(e Event) bool { return e.Streak >= 30 }},
	{ID: "centurion", Met: func(e Event) bool { return e.Total >= 100 }},
	{ID: "jumuah", Met: func(e Event) bool {
		return e.Prayer == model.Dhuhr && e.Day.Weekday() == time.Friday
	}},
}
