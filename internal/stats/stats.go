// Package stats aggregates prayer records into streaks, weekly totals,
// chart buckets and a calendar heatmap. A date without a record always
// counts as a day with zero completions.
package stats

import (
	"time"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// MaxStreakWindow bounds how many days before today a streak walk looks at.
const MaxStreakWindow = 365

// HistoryDays is the number of days, today included, a streak can span.
const HistoryDays = MaxStreakWindow + 1

// Index is a lookup of records by "YYYY-MM-DD".
type Index map[string]*model.PrayerRecord

// NewIndex builds an Index. Later records for the same date win.
func NewIndex(records []model.PrayerRecord) Index {
	idx := make(Index, len(records))
	for i := range records {
		idx[records[i].Date] = &records[i]
	}
	return idx
}

// Count returns the completions on day; a missing record is zero.
func (idx Index) Count(day time.Time) int {
	return idx[day.Format(model.DateLayout)].Count()
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CurrentStreak counts today if it is already perfect, then consecutive
// perfect days walking back from yesterday. An unfinished today neither adds
// to nor breaks the run.
func CurrentStreak(records []model.PrayerRecord, today time.Time) int {
	idx := NewIndex(records)
	day := dayStart(today)
	streak := 0
	if idx.Count(day) == len(model.DailyPrayers) {
		streak++
	}
	for i := 1; i <= MaxStreakWindow; i++ {
		if idx.Count(day.AddDate(0, 0, -i)) != len(model.DailyPrayers) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive perfect days in the records.
func LongestStreak(records []model.PrayerRecord) int {
	idx := NewIndex(records)
	best := 0
	for date, rec := range idx {
		if !rec.Perfect() {
			continue
		}
		day, err := time.Parse(model.DateLayout, date)
		if err != nil {
			continue
		}
		// Only start counting at the first day of a run.
		if idx.Count(day.AddDate(0, 0, -1)) == len(model.DailyPrayers) {
			continue
		}
		run := 0
		for idx.Count(day) == len(model.DailyPrayers) {
			run++
			day = day.AddDate(0, 0, 1)
		}
		if run > best {
			best = run
		}
	}
	return best
}

// DayCount is the completions for one calendar day.
type DayCount struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

// Daily returns the last n days ending with today, oldest first.
func Daily(records []model.PrayerRecord, today time.Time, n int) []DayCount {
	idx := NewIndex(records)
	start := dayStart(today).AddDate(0, 0, -(n - 1))
	out := make([]DayCount, 0, n)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i)
		out = append(out, DayCount{
			Date:    day.Format(model.DateLayout),
			Weekday: day.Format("Mon"),
			Count:   idx.Count(day),
		})
	}
	return out
}

// WeeklyTotal sums completions across the last 7 days, today included.
func WeeklyTotal(records []model.PrayerRecord, today time.Time) int {
	total := 0
	for _, d := range Daily(records, today, 7) {
		total += d.Count
	}
	return total
}

// Bucket is one 7-day window of the monthly chart.
type Bucket struct {
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
	Total int    `json:"total"`
}

// WeeklyBuckets splits the trailing 28 days into four 7-day windows, oldest
// first, labelled W1..W4.
func WeeklyBuckets(records []model.PrayerRecord, today time.Time) []Bucket {
	days := Daily(records, today, 28)
	out := make([]Bucket, 4)
	for w := 0; w < 4; w++ {
		week := days[w*7 : (w+1)*7]
		b := Bucket{
			Label: "W" + string(rune('1'+w)),
			From:  week[0].Date,
			To:    week[6].Date,
		}
		for _, d := range week {
			b.Total += d.Count
		}
		out[w] = b
	}
	return out
}

// MonthTotal sums completions from the first of today's month through today.
func MonthTotal(records []model.PrayerRecord, today time.Time) int {
	idx := NewIndex(records)
	total := 0
	day := dayStart(today)
	for d := 1; d <= day.Day(); d++ {
		total += idx.Count(time.Date(day.Year(), day.Month(), d, 0, 0, 0, 0, day.Location()))
	}
	return total
}

// Summary bundles the figures shown on the stats screen.
type Summary struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	WeeklyTotal   int        `json:"weekly_total"`
	MonthTotal    int        `json:"month_total"`
	Week          []DayCount `json:"week"`
	Buckets       []Bucket   `json:"buckets"`
	Heatmap       Heatmap    `json:"heatmap"`
}

// Summarize computes every aggregate from one record set.
func Summarize(records []model.PrayerRecord, today time.Time) Summary {
	return Summary{
		CurrentStreak: CurrentStreak(records, today),
		LongestStreak: LongestStreak(records),
		WeeklyTotal:   WeeklyTotal(records, today),
		MonthTotal:    MonthTotal(records, today),
		Week:          Daily(records, today, 7),
		Buckets:       WeeklyBuckets(records, today),
		Heatmap:       NewHeatmap(records, today),
	}
}
