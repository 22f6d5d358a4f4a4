// Package prayer turns a day of provider timings into concrete instants and
// answers "what comes next, and how long until it".
package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Event is one named instant of the day: a prayer or an astronomical marker
// such as Sunrise.
type Event struct {
	Name string
	Time time.Time
}

// AllEventNames lists every event the provider can return, in chronological order.
var AllEventNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha",
	"Imsak", "Midnight", "Firstthird", "Lastthird",
}

// DisplayNames are the rows shown by the today view.
var DisplayNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha",
}

// ShortNames maps full event names to short abbreviations.
var ShortNames = map[string]string{
	"Fajr":       "F",
	"Sunrise":    "S",
	"Dhuhr":      "D",
	"Asr":        "A",
	"Sunset":     "St",
	"Maghrib":    "M",
	"Isha":       "I",
	"Imsak":      "Im",
	"Midnight":   "Mi",
	"Firstthird": "F3",
	"Lastthird":  "L3",
}

// ParseTimings converts provider timings into events on date in loc, keeping
// only the selected names in the given order.
func ParseTimings(timings api.Timings, date time.Time, loc *time.Location, selected []string) ([]Event, error) {
	events := make([]Event, 0, len(selected))
	for _, name := range selected {
		raw, ok := timings.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", name)
		}

		t, err := parseClock(raw, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", name, raw, err)
		}

		events = append(events, Event{Name: name, Time: t})
	}
	return events, nil
}

// ParseDaily converts the five daily prayer times into events in canonical order.
func ParseDaily(d model.DailyTimings, date time.Time, loc *time.Location) ([]Event, error) {
	events := make([]Event, 0, len(model.DailyPrayers))
	for _, p := range model.DailyPrayers {
		raw, ok := d.Timings[p]
		if !ok {
			return nil, fmt.Errorf("timings for %s missing %s", d.Date, p)
		}
		t, err := parseClock(raw, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", p, raw, err)
		}
		events = append(events, Event{Name: p.String(), Time: t})
	}
	return events, nil
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// parseClock parses "15:02" or "15:02 (BST)" into an instant on date in loc.
func parseClock(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	hour, min, err := splitClock(raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}

func splitClock(raw string) (int, int, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time format: %q", raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	min, err := strconv.Atoi(mm)
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, min, nil
}

// FormatClock renders a provider "HH:MM" for display, as "17:07" or, with
// use12h, "5:07 PM". Input that is not a clock comes back unchanged.
func FormatClock(raw string, use12h bool) string {
	hour, min, err := splitClock(raw)
	switch {
	case err != nil:
		return raw
	case !use12h:
		return fmt.Sprintf("%02d:%02d", hour, min)
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	if hour = hour % 12; hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, min, suffix)
}
