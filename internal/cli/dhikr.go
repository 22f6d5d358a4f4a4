package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/dhikr"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/localstore"
)

func newDhikrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dhikr",
		Short: "Remembrance counter",
		Long:  "Show the tasbih counter. The count is kept on this device between runs.",
		Args:  cobra.NoArgs,
		RunE: dhikrAction(func(c *dhikr.Counter, args []string) (bool, error) {
			return false, nil
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "inc [n]",
			Short: "Count one (or n) remembrances",
			Args:  cobra.MaximumNArgs(1),
			RunE: dhikrAction(func(c *dhikr.Counter, args []string) (bool, error) {
				n := 1
				if len(args) == 1 {
					v, err := strconv.Atoi(args[0])
					if err != nil || v < 1 {
						return false, fmt.Errorf("invalid count %q: must be a positive integer", args[0])
					}
					n = v
				}
				for range n {
					c.Increment()
				}
				return true, nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the count to zero",
			Args:  cobra.NoArgs,
			RunE: dhikrAction(func(c *dhikr.Counter, args []string) (bool, error) {
				c.Reset()
				return true, nil
			}),
		},
		&cobra.Command{
			Use:   "select <n>",
			Short: "Choose the phrase (see 'namaz dhikr list')",
			Args:  cobra.ExactArgs(1),
			RunE: dhikrAction(func(c *dhikr.Counter, args []string) (bool, error) {
				i, err := strconv.Atoi(args[0])
				if err != nil || i < 1 || i > len(dhikr.Phrases) {
					return false, fmt.Errorf("invalid phrase number %q: must be 1-%d", args[0], len(dhikr.Phrases))
				}
				return true, c.Select(i - 1)
			}),
		},
		&cobra.Command{
			Use:   "goal <n>",
			Short: fmt.Sprintf("Set the round size (one of %v)", dhikr.Goals),
			Args:  cobra.ExactArgs(1),
			RunE: dhikrAction(func(c *dhikr.Counter, args []string) (bool, error) {
				g, err := strconv.Atoi(args[0])
				if err != nil {
					return false, fmt.Errorf("invalid goal %q", args[0])
				}
				return true, c.SetGoal(g)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the phrases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				if FlagJSON {
					return writeJSON(out, dhikr.Phrases)
				}
				for i, p := range dhikr.Phrases {
					fmt.Fprintf(out, "  %d  %s  %s\n", i+1, p.Translit, display.Gray(p.Meaning))
				}
				return nil
			},
		},
	)
	return cmd
}

// dhikrAction loads the counter, applies fn and saves when fn reports a
// change.
func dhikrAction(fn func(c *dhikr.Counter, args []string) (bool, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open("")
		if err != nil {
			return err
		}
		c := store.Dhikr()
		changed, err := fn(&c, args)
		if err != nil {
			return err
		}
		if changed {
			if err := store.SaveDhikr(c); err != nil {
				return err
			}
		}
		if FlagJSON {
			return writeJSON(cmd.OutOrStdout(), dhikrJSON{Counter: c, Phrase: c.Phrase(), Rounds: c.Rounds()})
		}
		printDhikr(cmd.OutOrStdout(), c)
		return nil
	}
}

type dhikrJSON struct {
	dhikr.Counter
	Phrase dhikr.Phrase `json:"phrase"`
	Rounds int          `json:"rounds"`
}

func printDhikr(w io.Writer, c dhikr.Counter) {
	p := c.Phrase()
	goal := c.Goal
	if goal <= 0 {
		goal = dhikr.DefaultGoal
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(p.Arabic))
	fmt.Fprintf(w, "  %s, %s\n", p.Translit, display.Gray(p.Meaning))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %d/%d\n", display.Bar(c.Count%goal, goal, 20), c.Count%goal, goal)
	fmt.Fprintf(w, "  Total %d, rounds %d\n", c.Count, c.Rounds())
	fmt.Fprintln(w)
}
