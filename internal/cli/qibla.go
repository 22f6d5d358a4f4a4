package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/qibla"
)

var (
	flagHeading float64
	flagStdin   bool
)

func newQiblaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Show the qibla direction from your location",
		Long: "Print the great-circle bearing to the Kaaba and the distance to it.\n\n" +
			"With --heading, or with --stdin reading one heading per line, the turn\n" +
			"needed from the device heading is shown as well. Stdin lines are either\n" +
			"a number (degrees clockwise from north) or an orientation event such as\n" +
			`{"alpha": 120} or {"compass_heading": 240}.`,
		Args: cobra.NoArgs,
		RunE: runQibla,
	}
	cmd.Flags().Float64Var(&flagHeading, "heading", 0, "Device heading in degrees clockwise from north")
	cmd.Flags().BoolVar(&flagStdin, "stdin", false, "Read headings from standard input")
	return cmd
}

type qiblaJSON struct {
	Location   todayJSONLocation `json:"location"`
	Bearing    float64           `json:"bearing"`
	Direction  string            `json:"direction"`
	DistanceKm float64           `json:"distance_km"`
	Heading    *float64          `json:"heading,omitempty"`
	Turn       *float64          `json:"turn,omitempty"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func qiblaReading(loc *geo.Location, fallback bool, tracker *qibla.HeadingTracker) qiblaJSON {
	coord := loc.Coordinate()
	bearing := qibla.Bearing(coord)
	out := qiblaJSON{
		Location: todayJSONLocation{
			City:      loc.City,
			Country:   loc.Country,
			Timezone:  loc.Timezone,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Fallback:  fallback,
		},
		Bearing:    round1(bearing),
		Direction:  qibla.Direction(bearing),
		DistanceKm: math.Round(qibla.DistanceKm(coord)),
	}
	if h, ok := tracker.Heading(); ok {
		turn := round1(qibla.RelativeTurn(bearing, h))
		h = round1(h)
		out.Heading, out.Turn = &h, &turn
	}
	return out
}

// parseOrientation reads one stdin line as a bare heading or a JSON event.
func parseOrientation(line string) (qibla.OrientationEvent, error) {
	if strings.HasPrefix(line, "{") {
		var ev qibla.OrientationEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return ev, fmt.Errorf("invalid orientation event %q: %w", line, err)
		}
		return ev, nil
	}
	h, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return qibla.OrientationEvent{}, fmt.Errorf("invalid heading %q", line)
	}
	return qibla.OrientationEvent{CompassHeading: &h}, nil
}

func describeTurn(turn float64) string {
	switch {
	case math.Abs(turn) < 5:
		return display.Green("facing the qibla")
	case turn > 0:
		return fmt.Sprintf("turn right %.0f°", turn)
	default:
		return fmt.Sprintf("turn left %.0f°", -turn)
	}
}

func printQibla(w io.Writer, loc *geo.Location, r qiblaJSON) {
	label := loc.Label()
	if r.Location.Fallback {
		label += display.Yellow("  (location unknown)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Qibla"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", label)
	fmt.Fprintf(w, "  Bearing   %s\n", display.Accent(fmt.Sprintf("%.1f° %s", r.Bearing, r.Direction)))
	fmt.Fprintf(w, "  Distance  %.0f km\n", r.DistanceKm)
	if r.Heading != nil {
		fmt.Fprintf(w, "  Heading   %.1f°, %s\n", *r.Heading, describeTurn(*r.Turn))
	}
	fmt.Fprintln(w)
}

func runQibla(cmd *cobra.Command, args []string) error {
	s := openSession(cmd)
	defer s.close()
	ctx := cmd.Context()
	loc, located := s.locate(ctx)
	out := cmd.OutOrStdout()

	tracker := qibla.NewHeadingTracker(qibla.AlwaysGranted{})
	if err := tracker.Enable(ctx); err != nil {
		return err
	}
	if cmd.Flags().Changed("heading") {
		tracker.Observe(qibla.OrientationEvent{CompassHeading: &flagHeading})
	}

	emit := func() error {
		r := qiblaReading(loc, !located, tracker)
		if FlagJSON {
			return writeJSON(out, r)
		}
		printQibla(out, loc, r)
		return nil
	}

	if !flagStdin {
		return emit()
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev, err := parseOrientation(line)
		if err != nil {
			log.Warn().Err(err).Msg("skipping reading")
			continue
		}
		tracker.Observe(ev)
		if err := emit(); err != nil {
			return err
		}
	}
	return sc.Err()
}
