package prayer

import (
	"errors"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// ErrNoTimings is returned when the daily events do not include Fajr, so no
// rollover target can be derived.
var ErrNoTimings = errors.New("no prayer timings available")

// Next is the upcoming daily prayer.
type Next struct {
	Prayer   model.Prayer `json:"prayer"`
	Time     time.Time    `json:"time"`
	Tomorrow bool         `json:"tomorrow"`
}

// NextPrayer walks the five daily prayers in canonical order and returns the
// first one strictly after now. Once Isha has passed, the answer is Fajr on
// the following calendar day at today's Fajr time.
func NextPrayer(daily []Event, now time.Time) (Next, error) {
	var fajr *Event
	for i := range daily {
		p, err := model.ParsePrayer(daily[i].Name)
		if err != nil || !p.Daily() {
			continue
		}
		if p == model.Fajr && fajr == nil {
			fajr = &daily[i]
		}
		if daily[i].Time.After(now) {
			return Next{Prayer: p, Time: daily[i].Time}, nil
		}
	}
	if fajr == nil {
		return Next{}, ErrNoTimings
	}
	return Next{Prayer: model.Fajr, Time: fajr.Time.AddDate(0, 0, 1), Tomorrow: true}, nil
}

// CountdownTarget resolves the instant the countdown runs to. It is next's
// own time, except that Fajr seen after midday always means tomorrow's Fajr
// at the same clock time.
func CountdownTarget(next Next, now time.Time) time.Time {
	if next.Prayer != model.Fajr {
		return next.Time
	}
	loc := next.Time.Location()
	n := now.In(loc)
	if n.Hour() <= 12 {
		return next.Time
	}
	return time.Date(n.Year(), n.Month(), n.Day()+1, next.Time.Hour(), next.Time.Minute(), 0, 0, loc)
}
