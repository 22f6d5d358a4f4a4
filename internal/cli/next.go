package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/prayer"
)

var (
	flagFormat   string
	flagWatch    bool
	flagInterval time.Duration
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Print the next prayer and the time left. With --watch the countdown keeps\nrunning in place and moves on to the following prayer when one is reached.",
		RunE:  runNext,
	}
	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Output style: "+strings.Join(prayer.FormatNames(), ", ")+", or a Go template such as '{{.Name}} in {{.Remaining}}'")
	cmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Keep counting down until interrupted")
	cmd.Flags().DurationVar(&flagInterval, "interval", time.Minute, "Refresh interval for --watch")
	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	if flagWatch && flagInterval < time.Second {
		return fmt.Errorf("--interval must be at least 1s")
	}

	s := openSession(cmd)
	defer s.close()
	ctx := cmd.Context()

	f, err := prayer.NewFormatter(flagFormat, clockLayout(s.cfg))
	if err != nil {
		return err
	}
	loc, _ := s.locate(ctx)
	countdown := prayer.NewCountdown(s.svc.DaySource(loc.Coordinate()))
	out := cmd.OutOrStdout()

	if !flagWatch {
		st, err := countdown.Tick(ctx, now())
		if err != nil {
			return fmt.Errorf("could not determine next prayer: %w", err)
		}
		if FlagJSON {
			return writeJSON(out, st)
		}
		fmt.Fprint(out, f.Format(st))
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	task := countdown.Run(ctx, flagInterval, func(st prayer.State, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("countdown tick failed")
			return
		}
		fmt.Fprintf(out, "\r%s\033[K", f.Format(st))
	})
	<-ctx.Done()
	task.Stop()
	fmt.Fprintln(out)
	return nil
}
