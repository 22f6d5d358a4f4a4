package api

import (
	"testing"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

func TestHijriDate_Format(t *testing.T) {
	ramadan := HijriMonth{Number: 9, En: "Ramaḍān"}

	tests := map[string]struct {
		h    HijriDate
		want string
	}{
		"with designation": {
			h:    HijriDate{Day: "27", Month: ramadan, Year: "1447", Designation: HijriDesignation{Abbreviated: "H"}},
			want: "27 Ramaḍān 1447 H",
		},
		"designation defaults to AH": {
			h:    HijriDate{Day: "27", Month: ramadan, Year: "1447"},
			want: "27 Ramaḍān 1447 AH",
		},
		"no day":   {h: HijriDate{Month: ramadan, Year: "1447"}},
		"no month": {h: HijriDate{Day: "27", Year: "1447"}},
		"no year":  {h: HijriDate{Day: "27", Month: ramadan}},
		"zero":     {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.h.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimings_Daily(t *testing.T) {
	tm := Timings{Fajr: "05:17 (BST)", Sunrise: "06:48", Dhuhr: "12:13", Asr: "15:02", Maghrib: "17:39", Isha: "19:10"}
	got := tm.Daily()
	if len(got) != 5 {
		t.Fatalf("Daily returned %d entries, want 5", len(got))
	}
	if got[model.Fajr] != "05:17" {
		t.Errorf("Fajr = %q, want suffix stripped", got[model.Fajr])
	}
	if got[model.Dhuhr] != "12:13" {
		t.Errorf("Dhuhr = %q", got[model.Dhuhr])
	}
}

func TestTimings_Lookup(t *testing.T) {
	tm := Timings{Sunrise: "06:48"}
	if v, ok := tm.Lookup("Sunrise"); !ok || v != "06:48" {
		t.Errorf("Lookup(Sunrise) = %q, %v", v, ok)
	}
	if _, ok := tm.Lookup("Noon"); ok {
		t.Error("Lookup(Noon) should fail")
	}
}
