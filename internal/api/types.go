package api

import (
	"strings"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Response represents the top-level Al Adhan API response.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds the prayer timings, date info, and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings contains all prayer and event times as HH:MM strings.
// The API may include a timezone suffix like " (BST)" which we strip during parsing.
type Timings struct {
	Fajr       string `json:"Fajr"`
	Sunrise    string `json:"Sunrise"`
	Dhuhr      string `json:"Dhuhr"`
	Asr        string `json:"Asr"`
	Sunset     string `json:"Sunset"`
	Maghrib    string `json:"Maghrib"`
	Isha       string `json:"Isha"`
	Imsak      string `json:"Imsak"`
	Midnight   string `json:"Midnight"`
	Firstthird string `json:"Firstthird"`
	Lastthird  string `json:"Lastthird"`
}

// Daily returns the five daily prayers' times, with any timezone suffix
// such as " (BST)" stripped.
func (t Timings) Daily() map[model.Prayer]string {
	return map[model.Prayer]string{
		model.Fajr:    stripZone(t.Fajr),
		model.Dhuhr:   stripZone(t.Dhuhr),
		model.Asr:     stripZone(t.Asr),
		model.Maghrib: stripZone(t.Maghrib),
		model.Isha:    stripZone(t.Isha),
	}
}

// Lookup returns the raw time for any event name the API reports.
func (t Timings) Lookup(name string) (string, bool) {
	m := map[string]string{
		"Fajr": t.Fajr, "Sunrise": t.Sunrise, "Dhuhr": t.Dhuhr, "Asr": t.Asr,
		"Sunset": t.Sunset, "Maghrib": t.Maghrib, "Isha": t.Isha, "Imsak": t.Imsak,
		"Midnight": t.Midnight, "Firstthird": t.Firstthird, "Lastthird": t.Lastthird,
	}
	v, ok := m[name]
	return v, ok
}

func stripZone(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}
	return s
}

// DateInfo carries the Hijri date of the requested day. The Gregorian half
// of the payload is ignored; callers already know the date they asked for.
type DateInfo struct {
	Hijri HijriDate `json:"hijri"`
}

// HijriDate represents the Hijri (Islamic) date from the API response.
type HijriDate struct {
	Date        string           `json:"date"` // e.g. "10-08-1447"
	Day         string           `json:"day"`
	Month       HijriMonth       `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
}

// HijriMonth represents the month in the Hijri calendar.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"` // English name, e.g. "Shaʿbān"
	Ar     string `json:"ar"` // Arabic name
}

// HijriDesignation contains the calendar designation labels.
type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"` // "AH"
	Expanded    string `json:"expanded"`    // "Anno Hegirae"
}

// Format returns the Hijri date as "DD MonthName YYYY AH".
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	abbr := h.Designation.Abbreviated
	if abbr == "" {
		abbr = "AH"
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " " + abbr
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
	School    string     `json:"school"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
