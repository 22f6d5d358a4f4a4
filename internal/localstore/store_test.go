package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smokyabdulrahman/namaz/internal/dhikr"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/tracker"
)

var _ tracker.GuestStore = (*Store)(nil)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "namaz", "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestDefaultPath_XDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg-data", "namaz", "state.json"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestGuestRecord_Untouched(t *testing.T) {
	s, _ := openTemp(t)
	rec, err := s.GuestRecord("2026-03-11")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Date != "2026-03-11" || rec.Count() != 0 {
		t.Errorf("untouched record = %+v", rec)
	}
}

func TestSaveGuestRecord_Persists(t *testing.T) {
	s, path := openTemp(t)

	rec := model.PrayerRecord{Date: "2026-03-11", Fajr: true, Isha: true}
	if err := s.SaveGuestRecord(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveDhikr(dhikr.Counter{Count: 12, Index: 1}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := reopened.GuestRecord("2026-03-11")
	if !got.Fajr || !got.Isha || got.Asr {
		t.Errorf("reloaded record = %+v", got)
	}
	if c := reopened.Dhikr(); c.Count != 12 || c.Index != 1 {
		t.Errorf("reloaded dhikr = %+v", c)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestSaveGuestRecord_NoDate(t *testing.T) {
	s, _ := openTemp(t)
	if err := s.SaveGuestRecord(model.PrayerRecord{Fajr: true}); err == nil {
		t.Error("expected error for record without date")
	}
}

func TestSaveGuestRecord_FailureKeepsState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// The parent "directory" is a regular file, so every write fails.
	s, err := Open(filepath.Join(blocker, "state.json"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SaveGuestRecord(model.PrayerRecord{Date: "2026-03-11", Fajr: true}); err == nil {
		t.Fatal("expected write error")
	}
	if got, _ := s.GuestRecord("2026-03-11"); got.Fajr {
		t.Error("failed save left the record in memory")
	}
}

func TestGuestRecords_Range(t *testing.T) {
	s, _ := openTemp(t)
	for _, d := range []string{"2026-03-12", "2026-03-01", "2026-03-10", "2026-02-28"} {
		if err := s.SaveGuestRecord(model.PrayerRecord{Date: d, Fajr: true}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.GuestRecords("2026-03-01", "2026-03-11")
	if len(got) != 2 || got[0].Date != "2026-03-01" || got[1].Date != "2026-03-10" {
		t.Errorf("GuestRecords = %+v", got)
	}
}

func TestOpen_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(path, []byte("{broken"), 0o644)
	if _, err := Open(path); err == nil {
		t.Error("expected error for invalid state file")
	}
}

func TestGuestTracker_ToggleRoundTrip(t *testing.T) {
	s, _ := openTemp(t)
	g := tracker.NewGuest(s)

	res, err := g.Toggle(context.Background(), "2026-03-11", model.Asr)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Checked {
		t.Error("first toggle should check")
	}
	if rec, _ := s.GuestRecord("2026-03-11"); !rec.Asr {
		t.Error("toggle not persisted")
	}

	if res, _ = g.Toggle(context.Background(), "2026-03-11", model.Asr); res.Checked {
		t.Error("second toggle should uncheck")
	}
}
