package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParsePrayer(t *testing.T) {
	tests := []struct {
		in      string
		want    Prayer
		wantErr bool
	}{
		{"fajr", Fajr, false},
		{"FAJR", Fajr, false},
		{"zuhr", Dhuhr, false},
		{"Dhuhr", Dhuhr, false},
		{" isha ", Isha, false},
		{"witr", Witr, false},
		{"sunrise", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePrayer(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPrayer) {
				t.Errorf("ParsePrayer(%q) err = %v, want ErrInvalidPrayer", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePrayer(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestPrayerRecord_Flags(t *testing.T) {
	var r PrayerRecord
	if r.Perfect() {
		t.Fatal("empty record should not be perfect")
	}
	for _, p := range DailyPrayers {
		if err := r.Set(p, true); err != nil {
			t.Fatalf("Set(%s): %v", p, err)
		}
	}
	if !r.Perfect() || r.Count() != 5 {
		t.Errorf("Count = %d, Perfect = %v", r.Count(), r.Perfect())
	}
	if err := r.Set(Witr, true); !errors.Is(err, ErrInvalidPrayer) {
		t.Errorf("Set(Witr) err = %v, want ErrInvalidPrayer", err)
	}
	// Flags toggle independently.
	_ = r.Set(Asr, false)
	if r.Get(Asr) || !r.Get(Maghrib) || r.Count() != 4 {
		t.Errorf("unexpected flags after clearing Asr: %+v", r)
	}
}

func TestPrayerRecord_NilCount(t *testing.T) {
	var r *PrayerRecord
	if r.Count() != 0 {
		t.Errorf("nil record Count = %d, want 0", r.Count())
	}
}

func TestQadaCounts_FloorAtZero(t *testing.T) {
	var q QadaCounts
	if err := q.Adjust(Fajr, -1); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if q.Fajr != 0 {
		t.Errorf("Fajr = %d after decrementing zero, want 0", q.Fajr)
	}

	_ = q.Adjust(Witr, 3)
	_ = q.Adjust(Witr, -5)
	if q.Witr != 0 {
		t.Errorf("Witr = %d, want 0", q.Witr)
	}

	_ = q.Adjust(Dhuhr, 2)
	if q.Zuhr != 2 || q.Total() != 2 {
		t.Errorf("Zuhr = %d, Total = %d", q.Zuhr, q.Total())
	}
}

func TestQadaCounts_AdjustBounds(t *testing.T) {
	q := QadaCounts{Fajr: 3}
	for _, delta := range []int{math.MaxInt, math.MinInt, MaxQadaDelta + 1, -MaxQadaDelta - 1} {
		if err := q.Adjust(Fajr, delta); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Adjust(%d) err = %v, want ErrInvalidRecord", delta, err)
		}
	}
	if q.Fajr != 3 {
		t.Errorf("Fajr = %d after rejected deltas, want 3", q.Fajr)
	}

	q.Isha = MaxQadaCount - 1
	if err := q.Adjust(Isha, MaxQadaDelta); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if q.Isha != MaxQadaCount {
		t.Errorf("Isha = %d, want capped at %d", q.Isha, MaxQadaCount)
	}
}

func TestProofs_ScanValue(t *testing.T) {
	p := Proofs{Fajr: "https://cdn.example.com/a.jpg"}
	v, err := p.Value()
	if err != nil {
		t.Fatal(err)
	}
	var back Proofs
	if err := back.Scan([]byte(v.(string))); err != nil {
		t.Fatal(err)
	}
	if back[Fajr] != p[Fajr] {
		t.Errorf("round trip = %v", back)
	}
	if err := back.Scan(nil); err != nil || len(back) != 0 {
		t.Errorf("Scan(nil) = %v, %v", back, err)
	}
}

func TestProfile_CompletionPercent(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	p := Profile{CreatedAt: now.AddDate(0, 0, -10), TotalPrayers: 25}
	if got := p.CompletionPercent(now); got != 50 {
		t.Errorf("CompletionPercent = %d, want 50", got)
	}
	p.TotalPrayers = 500
	if got := p.CompletionPercent(now); got != 100 {
		t.Errorf("CompletionPercent = %d, want capped 100", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (Coordinate{Latitude: 91}).Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("lat 91 err = %v", err)
	}
	if err := (Coordinate{Latitude: 21.4, Longitude: 39.8}).Validate(); err != nil {
		t.Errorf("valid coordinate: %v", err)
	}
	rec := PrayerRecord{UserID: "not-a-uuid", Date: "2026-03-11"}
	if err := Validate(rec); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("bad user id err = %v", err)
	}
	rec.UserID = "8d1f5a3e-7c55-4b8c-9a4e-2f6b1c9d0e11"
	rec.Date = "11-03-2026"
	if err := Validate(rec); err == nil {
		t.Error("bad date accepted")
	}
}
