package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

// now is swapped by tests.
var now = time.Now

// todayView is everything the default command prints.
type todayView struct {
	Location  *geo.Location
	Fallback  bool
	FromCache bool
	Entry     *cache.Entry
	Now       time.Time
	Rows      []prayer.Event
	Next      prayer.Next
	Target    time.Time
}

func runToday(cmd *cobra.Command, args []string) error {
	s := openSession(cmd)
	defer s.close()
	ctx := cmd.Context()

	loc, located := s.locate(ctx)
	coord := loc.Coordinate()
	res, err := s.svc.Get(ctx, &coord)
	if err != nil {
		return fmt.Errorf("prayer times unavailable: %w", err)
	}

	tz := timings.Location(res.Entry, zone(loc))
	v := todayView{
		Location:  loc,
		Fallback:  !located,
		FromCache: res.FromCache,
		Entry:     res.Entry,
		Now:       now().In(tz),
	}

	day, err := time.ParseInLocation("2006-01-02", res.Entry.Date, tz)
	if err != nil {
		return err
	}
	if v.Rows, err = prayer.ParseTimings(res.Entry.Timings, day, tz, prayer.DisplayNames); err != nil {
		return err
	}
	events, err := timings.Events(res.Entry, tz)
	if err != nil {
		return err
	}
	if v.Next, err = prayer.NextPrayer(events, v.Now); err != nil {
		return err
	}
	v.Target = prayer.CountdownTarget(v.Next, v.Now)

	out := cmd.OutOrStdout()
	layout := clockLayout(s.cfg)
	if FlagJSON {
		return printTodayJSON(out, v, layout)
	}
	printTodayRich(out, v, layout)
	return nil
}

// currentEvent is the last row whose time has passed, or nil before the
// first one.
func currentEvent(rows []prayer.Event, now time.Time) *prayer.Event {
	var cur *prayer.Event
	for i := range rows {
		if !rows[i].Time.After(now) {
			cur = &rows[i]
		}
	}
	return cur
}

func formatGregorianDate(e *cache.Entry, now time.Time) string {
	day, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return now.Format("02 Jan 2006")
	}
	return day.Format("Monday, 02 January 2006")
}

func printTodayRich(w io.Writer, v todayView, layout string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	label := v.Location.Label()
	if v.Fallback {
		label += display.Yellow("  (location unknown)")
	}
	fmt.Fprintf(w, "  %s\n", label)
	fmt.Fprintf(w, "  %s\n", formatGregorianDate(v.Entry, v.Now))
	if h := v.Entry.Hijri.Format(); h != "" {
		fmt.Fprintf(w, "  %s\n", h)
	}
	fmt.Fprintln(w)

	width := 0
	for _, r := range v.Rows {
		width = max(width, len(r.Name))
	}

	cur := currentEvent(v.Rows, v.Now)
	for _, r := range v.Rows {
		line := fmt.Sprintf("  %-*s  %s", width, r.Name, r.Time.Format(layout))
		switch {
		case !v.Next.Tomorrow && r.Name == string(v.Next.Prayer):
			remaining := prayer.FormatRemaining(v.Target.Sub(v.Now))
			fmt.Fprintln(w, display.Accent(line+"  <- next in "+remaining))
		case cur != nil && r.Name == cur.Name:
			fmt.Fprintln(w, display.Dim(line))
		default:
			fmt.Fprintln(w, line)
		}
	}
	if v.Next.Tomorrow {
		remaining := prayer.FormatRemaining(v.Target.Sub(v.Now))
		fmt.Fprintln(w)
		fmt.Fprintln(w, display.Accent(fmt.Sprintf("  Fajr tomorrow at %s, in %s", v.Target.Format(layout), remaining)))
	}
	if v.FromCache {
		fmt.Fprintln(w)
		fmt.Fprintln(w, display.Gray(fmt.Sprintf("  cached %s", v.Entry.FetchedAt.In(v.Now.Location()).Format("02 Jan 15:04"))))
	}
	fmt.Fprintln(w)
}

type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     todayJSONNext     `json:"next"`
	Cached   bool              `json:"cached"`
}

type todayJSONLocation struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Fallback  bool    `json:"fallback,omitempty"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer           string `json:"prayer"`
	Time             string `json:"time"`
	Tomorrow         bool   `json:"tomorrow,omitempty"`
	Remaining        string `json:"remaining"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

func printTodayJSON(w io.Writer, v todayView, layout string) error {
	out := todayJSON{
		Location: todayJSONLocation{
			City:      v.Location.City,
			Country:   v.Location.Country,
			Timezone:  v.Now.Location().String(),
			Latitude:  v.Location.Latitude,
			Longitude: v.Location.Longitude,
			Fallback:  v.Fallback,
		},
		Date: todayJSONDate{
			Gregorian: formatGregorianDate(v.Entry, v.Now),
			Hijri:     v.Entry.Hijri.Format(),
		},
		Timings: make(map[string]string, len(v.Rows)),
		Cached:  v.FromCache,
	}
	for _, r := range v.Rows {
		out.Timings[strings.ToLower(r.Name)] = r.Time.Format(layout)
	}
	if cur := currentEvent(v.Rows, v.Now); cur != nil {
		out.Current = strings.ToLower(cur.Name)
	}
	remaining := v.Target.Sub(v.Now)
	out.Next = todayJSONNext{
		Prayer:           strings.ToLower(string(v.Next.Prayer)),
		Time:             v.Target.Format(layout),
		Tomorrow:         v.Next.Tomorrow,
		Remaining:        prayer.FormatRemaining(remaining),
		RemainingSeconds: int64(remaining.Seconds()),
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
