package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/db"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/localstore"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/stats"
	"github.com/smokyabdulrahman/namaz/internal/tracker"
)

var (
	flagDate  string
	flagLimit int
)

// errSignedOut is returned by commands that need the shared store.
var errSignedOut = errors.New("not signed in: set database_url and user_id with 'namaz config set'")

// backend is where check-offs go: the shared store when signed in,
// otherwise the device-local state file.
type backend struct {
	userID  string
	conn    *sqlx.DB
	store   db.Store
	tracker *tracker.Tracker
	local   *localstore.Store
	guest   *tracker.GuestTracker
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if !cfg.SignedIn() {
		local, err := localstore.Open("")
		if err != nil {
			return nil, err
		}
		return &backend{local: local, guest: tracker.NewGuest(local)}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	store := db.NewStore(conn)
	return &backend{
		userID:  cfg.UserID,
		conn:    conn,
		store:   store,
		tracker: tracker.New(store, tracker.WithClock(now)),
	}, nil
}

func (b *backend) signedIn() bool { return b.store != nil }

func (b *backend) close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *backend) toggle(ctx context.Context, date string, p model.Prayer) (*tracker.ToggleResult, error) {
	if b.signedIn() {
		return b.tracker.Toggle(ctx, b.userID, date, p)
	}
	return b.guest.Toggle(ctx, date, p)
}

func (b *backend) summary(ctx context.Context) (*stats.Summary, error) {
	if b.signedIn() {
		return b.tracker.Summary(ctx, b.userID)
	}
	today := now()
	from := today.AddDate(0, 0, -(stats.HistoryDays - 1)).Format(model.DateLayout)
	sum := stats.Summarize(b.local.GuestRecords(from, today.Format(model.DateLayout)), today)
	return &sum, nil
}

// achievementNames maps ids to display names. Lookup failures fall back to
// the ids.
func (b *backend) achievementNames(ctx context.Context) map[string]string {
	names := map[string]string{}
	if !b.signedIn() {
		return names
	}
	catalog, err := b.store.ListAchievements(ctx)
	if err != nil {
		return names
	}
	for _, a := range catalog {
		names[a.ID] = a.Name
	}
	return names
}

func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, effectiveConfig(cmd))
	if err != nil {
		return err
	}
	defer b.close()
	return fn(ctx, b)
}

// checkDate validates --date. Empty means today; future days are refused.
func checkDate(s string) (string, error) {
	today := now().Format(model.DateLayout)
	if s == "" {
		return today, nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid --date %q: use YYYY-MM-DD", s)
	}
	if s > today {
		return "", fmt.Errorf("cannot check off prayers on %s, it is in the future", s)
	}
	return s, nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <prayer>",
		Short: "Check off (or uncheck) a daily prayer",
		Long:  "Toggle one of the five daily prayers for today or --date.\nSigned-in users also update their total, streak and achievements.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePrayer(args[0])
			if err != nil {
				return err
			}
			if !p.Daily() {
				return fmt.Errorf("%w: %s cannot be checked off", model.ErrInvalidPrayer, p)
			}
			date, err := checkDate(flagDate)
			if err != nil {
				return err
			}
			return withBackend(cmd, func(ctx context.Context, b *backend) error {
				res, err := b.toggle(ctx, date, p)
				if err != nil {
					return err
				}
				if FlagJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				printToggle(cmd.OutOrStdout(), res, b.signedIn(), b.achievementNames(ctx))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flagDate, "date", "", "Day to update (YYYY-MM-DD, default today)")
	return cmd
}

func printToggle(w io.Writer, res *tracker.ToggleResult, signedIn bool, names map[string]string) {
	verb := "unchecked"
	if res.Checked {
		verb = display.Green("checked")
	}
	fmt.Fprintf(w, "  %s %s for %s\n", res.Prayer, verb, res.Record.Date)
	fmt.Fprintln(w)
	for _, p := range model.DailyPrayers {
		mark := display.Gray("·")
		if res.Record.Get(p) {
			mark = display.Green("✓")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, p)
	}
	fmt.Fprintln(w)
	if res.PerfectDay {
		fmt.Fprintf(w, "  %s\n", display.Accent("All five prayed today"))
	}
	if signedIn {
		fmt.Fprintf(w, "  Total %d, streak %d\n", res.Total, res.Streak)
	}
	for _, id := range res.Unlocked {
		name := names[id]
		if name == "" {
			name = id
		}
		fmt.Fprintf(w, "  %s %s\n", display.Yellow("Achievement unlocked:"), name)
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streaks, totals and the monthly heatmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend) error {
				sum, err := b.summary(ctx)
				if err != nil {
					return err
				}
				if FlagJSON {
					return writeJSON(cmd.OutOrStdout(), sum)
				}
				printStats(cmd.OutOrStdout(), sum)
				return nil
			})
		},
	}
}

func printStats(w io.Writer, s *stats.Summary) {
	perDay := len(model.DailyPrayers)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Stats"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Current streak  %s\n", display.Accent(fmt.Sprintf("%d days", s.CurrentStreak)))
	fmt.Fprintf(w, "  Longest streak  %d days\n", s.LongestStreak)
	fmt.Fprintf(w, "  This week       %s %d/%d (%s)\n", display.Bar(s.WeeklyTotal, 7*perDay, 14), s.WeeklyTotal, 7*perDay, display.Percent(s.WeeklyTotal, 7*perDay))
	fmt.Fprintf(w, "  This month      %d\n", s.MonthTotal)
	fmt.Fprintln(w)

	for _, d := range s.Week {
		fmt.Fprintf(w, "  %s  %s %d\n", d.Weekday, display.Bar(d.Count, perDay, perDay*2), d.Count)
	}
	fmt.Fprintln(w)
	for _, b := range s.Buckets {
		fmt.Fprintf(w, "  %s  %s %d\n", b.Label, display.Bar(b.Total, 7*perDay, 14), b.Total)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, display.Heatmap(s.Heatmap))
	fmt.Fprintln(w)
}

func newQadaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qada [prayer delta]",
		Short: "Show or adjust missed prayers to make up",
		Long:  "Without arguments print the make-up counters. With a prayer and a signed\ndelta, adjust one counter; counters never drop below zero.\n\nExamples:\n  namaz qada fajr 3\n  namaz qada -- witr -1",
		Args:  cobra.MatchAll(cobra.RangeArgs(0, 2), func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("qada needs both a prayer and a delta")
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend) error {
				if !b.signedIn() {
					return errSignedOut
				}
				var (
					q   *model.QadaCounts
					err error
				)
				if len(args) == 2 {
					p, perr := model.ParsePrayer(args[0])
					if perr != nil {
						return perr
					}
					delta, derr := strconv.Atoi(args[1])
					if derr != nil || delta == 0 || delta < -model.MaxQadaDelta || delta > model.MaxQadaDelta {
						return fmt.Errorf("invalid delta %q: must be a non-zero integer within ±%d", args[1], model.MaxQadaDelta)
					}
					q, err = b.tracker.AdjustQada(ctx, b.userID, p, delta)
				} else {
					q, err = b.store.GetQada(ctx, b.userID)
				}
				if err != nil {
					return err
				}
				if FlagJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"counts": q, "total": q.Total()})
				}
				printQada(cmd.OutOrStdout(), q)
				return nil
			})
		},
	}
}

func printQada(w io.Writer, q *model.QadaCounts) {
	tbl := display.NewTable("Prayer", "Owed")
	for _, p := range model.QadaPrayers {
		tbl.AddRow(string(p), strconv.Itoa(q.Get(p)))
	}
	tbl.AddRow("Total", strconv.Itoa(q.Total()))
	tbl.Highlight(tbl.Len() - 1)
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the public leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagLimit < 1 || flagLimit > 100 {
				return fmt.Errorf("invalid --limit %d: must be between 1 and 100", flagLimit)
			}
			return withBackend(cmd, func(ctx context.Context, b *backend) error {
				if !b.signedIn() {
					return errSignedOut
				}
				entries, err := b.store.Leaderboard(ctx, flagLimit)
				if err != nil {
					return err
				}
				if FlagJSON {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				tbl := display.NewTable("#", "Name", "Streak", "Total")
				for i, e := range entries {
					name := e.Name
					if name == "" {
						name = "Anonymous"
					}
					tbl.AddRow(strconv.Itoa(e.Rank), name, strconv.Itoa(e.CurrentStreak), strconv.Itoa(e.TotalPrayers))
					if e.UserID == b.userID {
						tbl.Highlight(i)
					}
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out)
				if tbl.Len() == 0 {
					fmt.Fprintln(out, "  No public profiles yet.")
				} else {
					fmt.Fprint(out, tbl.Render())
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&flagLimit, "limit", db.DefaultLeaderboardSize, "Number of entries (1-100)")
	return cmd
}
