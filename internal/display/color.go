// Package display styles terminal output with raw ANSI escape codes.
//
// Colors are off when NO_COLOR is set (https://no-color.org/) or stdout is
// not a terminal. FORCE_COLOR turns them on regardless.
package display

import (
	"os"

	"github.com/smokyabdulrahman/namaz/internal/stats"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m"

	// heatmap shades, darkest to brightest green
	shadeLow     = "\033[38;5;22m"
	shadeHigh    = "\033[38;5;34m"
	shadePerfect = "\033[38;5;46m"
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal checks for a character device; no cgo needed.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// SetEnabled overrides the detected color state, e.g. for --json or tests.
func SetEnabled(b bool) { enabled = b }

func Enabled() bool { return enabled }

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

func Bold(text string) string   { return wrap(bold, text) }
func Dim(text string) string    { return wrap(dim, text) }
func Red(text string) string    { return wrap(red, text) }
func Green(text string) string  { return wrap(green, text) }
func Yellow(text string) string { return wrap(yellow, text) }
func Cyan(text string) string   { return wrap(cyan, text) }
func Gray(text string) string   { return wrap(fgGray, text) }

// Accent highlights the next prayer and today's row.
func Accent(text string) string { return wrap(bold+cyan, text) }

// Shade colors text by heatmap tier. Empty days are gray.
func Shade(tier stats.Tier, text string) string {
	switch tier {
	case stats.TierLow:
		return wrap(shadeLow, text)
	case stats.TierHigh:
		return wrap(shadeHigh, text)
	case stats.TierPerfect:
		return wrap(bold+shadePerfect, text)
	}
	return wrap(fgGray, text)
}
