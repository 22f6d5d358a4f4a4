package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query one event for today, or across multiple days with --days.\n\nValid names: " + strings.Join(prayer.AllEventNames, ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")
	return cmd
}

// canonicalEvent matches name case-insensitively against the provider's
// event names.
func canonicalEvent(name string) (string, error) {
	for _, n := range prayer.AllEventNames {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q; valid names: %s", name, strings.Join(prayer.AllEventNames, ", "))
}

func parseDays(s string) (int, error) {
	switch s {
	case "":
		return 1, nil
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid --days value %q: must be a positive integer, 'week', or 'month'", s)
	}
	return n, nil
}

type queryJSONSingle struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Hijri  string `json:"hijri"`
}

type queryJSONMulti struct {
	Location todayJSONLocation `json:"location"`
	Prayer   string            `json:"prayer"`
	Days     []queryJSONSingle `json:"days"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, err := canonicalEvent(args[0])
	if err != nil {
		return err
	}
	days, err := parseDays(flagQueryDays)
	if err != nil {
		return err
	}

	s := openSession(cmd)
	defer s.close()
	sp, err := loadDays(cmd.Context(), s, days, []string{name})
	if err != nil {
		return err
	}
	layout := clockLayout(s.cfg)
	out := cmd.OutOrStdout()

	rows := make([]queryJSONSingle, 0, len(sp.Days))
	for _, d := range sp.Days {
		rows = append(rows, queryJSONSingle{
			Prayer: strings.ToLower(name),
			Time:   d.Rows[0].Time.Format(layout),
			Date:   d.Day.Format(model.DateLayout),
			Hijri:  d.Entry.Hijri.Format(),
		})
	}

	if days == 1 {
		if FlagJSON {
			return writeJSON(out, rows[0])
		}
		fmt.Fprintf(out, "%s %s\n", name, rows[0].Time)
		return nil
	}

	if FlagJSON {
		return writeJSON(out, queryJSONMulti{Location: spanLocation(sp), Prayer: strings.ToLower(name), Days: rows})
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(fmt.Sprintf("%s Times, %d Days", name, days)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", locationLine(sp))
	fmt.Fprintln(out)

	tbl := display.NewTable("Date", name)
	for i, d := range sp.Days {
		tbl.AddRow(d.Day.Format("Mon 02 Jan"), rows[i].Time)
		if rows[i].Date == sp.Today {
			tbl.Highlight(i)
		}
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)
	return nil
}
