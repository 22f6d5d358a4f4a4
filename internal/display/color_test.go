package display

import (
	"os"
	"testing"

	"github.com/smokyabdulrahman/namaz/internal/stats"
)

func withColor(t *testing.T, on bool) {
	t.Helper()
	prev := enabled
	SetEnabled(on)
	t.Cleanup(func() { SetEnabled(prev) })
}

func TestStyles(t *testing.T) {
	withColor(t, true)

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"Bold", Bold, "\033[1mx\033[0m"},
		{"Dim", Dim, "\033[2mx\033[0m"},
		{"Red", Red, "\033[31mx\033[0m"},
		{"Green", Green, "\033[32mx\033[0m"},
		{"Yellow", Yellow, "\033[33mx\033[0m"},
		{"Cyan", Cyan, "\033[36mx\033[0m"},
		{"Gray", Gray, "\033[90mx\033[0m"},
		{"Accent", Accent, "\033[1m\033[36mx\033[0m"},
	}
	for _, tt := range tests {
		if got := tt.fn("x"); got != tt.want {
			t.Errorf("%s(x) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStyles_Disabled(t *testing.T) {
	withColor(t, false)

	for _, fn := range []func(string) string{Bold, Dim, Red, Green, Yellow, Cyan, Gray, Accent} {
		if got := fn("plain"); got != "plain" {
			t.Errorf("styled text with colors off = %q", got)
		}
	}
	if got := Shade(stats.TierPerfect, "5"); got != "5" {
		t.Errorf("Shade with colors off = %q", got)
	}
}

func TestShade(t *testing.T) {
	withColor(t, true)

	seen := map[string]stats.Tier{}
	for _, tier := range []stats.Tier{stats.TierNone, stats.TierLow, stats.TierHigh, stats.TierPerfect} {
		got := Shade(tier, "n")
		if prev, dup := seen[got]; dup {
			t.Errorf("tiers %d and %d share a shade", prev, tier)
		}
		seen[got] = tier
	}
	if Shade(stats.TierNone, "0") != Gray("0") {
		t.Error("empty days should be gray")
	}
}

func TestShouldEnable(t *testing.T) {
	t.Setenv("FORCE_COLOR", "1")
	t.Setenv("NO_COLOR", "")
	if shouldEnable() {
		t.Error("NO_COLOR should win over FORCE_COLOR, even when empty")
	}

	os.Unsetenv("NO_COLOR")
	if !shouldEnable() {
		t.Error("FORCE_COLOR should enable colors when stdout is not a terminal")
	}
}
