package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days starting today (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 7
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid number of days: %q (must be a positive integer)", args[0])
				}
				days = n
			}
			return runList(cmd, days)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runList(cmd, 7) },
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'.",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runList(cmd, 30) },
	}
}

// dayView is one parsed day of a multi-day view.
type dayView struct {
	Day   time.Time
	Entry *cache.Entry
	Rows  []prayer.Event
}

// span is the result of loadDays: consecutive days in the location's zone.
type span struct {
	Location *geo.Location
	Fallback bool
	Zone     *time.Location
	Today    string
	Days     []dayView
}

// loadDays resolves the location and loads days consecutive days starting
// today. Today's slot is read first so its zone anchors the remaining days.
func loadDays(ctx context.Context, s *session, days int, names []string) (*span, error) {
	loc, located := s.locate(ctx)
	coord := loc.Coordinate()

	start := now().In(zone(loc))
	first, err := s.svc.ForDate(ctx, coord, start)
	if err != nil {
		return nil, fmt.Errorf("prayer times unavailable: %w", err)
	}
	tz := timings.Location(first, zone(loc))
	start = start.In(tz)
	today := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, tz)

	rest, err := s.svc.Span(ctx, coord, today.AddDate(0, 0, 1).Add(12*time.Hour), days-1)
	if err != nil {
		return nil, err
	}
	entries := append([]*cache.Entry{first}, rest...)

	out := &span{Location: loc, Fallback: !located, Zone: tz, Today: today.Format(model.DateLayout)}
	for i, e := range entries {
		day := today.AddDate(0, 0, i)
		rows, err := prayer.ParseTimings(e.Timings, day, tz, names)
		if err != nil {
			return nil, err
		}
		out.Days = append(out.Days, dayView{Day: day, Entry: e, Rows: rows})
	}
	return out, nil
}

// selectedNames is the configured prayer list, or the today view's rows.
func selectedNames(prayers string) []string {
	if prayers == "" {
		return prayer.DisplayNames
	}
	var names []string
	for _, n := range strings.Split(prayers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func runList(cmd *cobra.Command, days int) error {
	s := openSession(cmd)
	defer s.close()

	names := selectedNames(s.cfg.Prayers)
	sp, err := loadDays(cmd.Context(), s, days, names)
	if err != nil {
		return err
	}
	layout := clockLayout(s.cfg)
	out := cmd.OutOrStdout()

	if FlagJSON {
		return writeJSON(out, listJSON(sp, layout))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(fmt.Sprintf("Prayer Times, %d Days", days)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", locationLine(sp))
	fmt.Fprintln(out)

	tbl := display.NewTable(append([]string{"Date"}, names...)...)
	for i, d := range sp.Days {
		row := []string{d.Day.Format("Mon 02 Jan")}
		for _, r := range d.Rows {
			row = append(row, r.Time.Format(layout))
		}
		tbl.AddRow(row...)
		if d.Day.Format(model.DateLayout) == sp.Today {
			tbl.Highlight(i)
		}
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)
	return nil
}

func locationLine(sp *span) string {
	label := sp.Location.Label()
	if sp.Fallback {
		label += display.Yellow("  (location unknown)")
	}
	return label
}

type listJSONOutput struct {
	Location todayJSONLocation `json:"location"`
	Days     []listJSONDay     `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri"`
	Timings map[string]string `json:"timings"`
}

func spanLocation(sp *span) todayJSONLocation {
	return todayJSONLocation{
		City:      sp.Location.City,
		Country:   sp.Location.Country,
		Timezone:  sp.Zone.String(),
		Latitude:  sp.Location.Latitude,
		Longitude: sp.Location.Longitude,
		Fallback:  sp.Fallback,
	}
}

func listJSON(sp *span, layout string) listJSONOutput {
	out := listJSONOutput{Location: spanLocation(sp)}
	for _, d := range sp.Days {
		t := make(map[string]string, len(d.Rows))
		for _, r := range d.Rows {
			t[strings.ToLower(r.Name)] = r.Time.Format(layout)
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    d.Day.Format(model.DateLayout),
			Hijri:   d.Entry.Hijri.Format(),
			Timings: t,
		})
	}
	return out
}
