// Package localstore keeps device-local state for signed-out use: guest
// check-offs and the dhikr counter.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/smokyabdulrahman/namaz/internal/dhikr"
	"github.com/smokyabdulrahman/namaz/internal/model"
)

const (
	dataDirName  = "namaz"
	dataFileName = "state.json"
)

type state struct {
	Records map[string]model.PrayerRecord `json:"records"`
	Dhikr   dhikr.Counter                 `json:"dhikr"`
}

// Store is a JSON file holding all local state. Every write replaces the
// file atomically.
type Store struct {
	mu    sync.Mutex
	path  string
	state state
}

// DefaultPath returns $XDG_DATA_HOME/namaz/state.json, falling back to
// ~/.local/share.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, dataDirName, dataFileName), nil
}

// Open loads the state at path, or DefaultPath when path is empty. A missing
// file is an empty state.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := &Store{path: path, state: state{Records: map[string]model.PrayerRecord{}}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local state: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("invalid local state %s: %w", path, err)
	}
	if s.state.Records == nil {
		s.state.Records = map[string]model.PrayerRecord{}
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// GuestRecord returns the record for date. A day never touched is all
// unchecked.
func (s *Store) GuestRecord(date string) (model.PrayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.state.Records[date]
	if !ok {
		rec = model.PrayerRecord{Date: date}
	}
	return rec, nil
}

// SaveGuestRecord stores rec under its date.
func (s *Store) SaveGuestRecord(rec model.PrayerRecord) error {
	if rec.Date == "" {
		return fmt.Errorf("%w: record has no date", model.ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.state.Records[rec.Date]
	s.state.Records[rec.Date] = rec
	if err := s.flush(); err != nil {
		if had {
			s.state.Records[rec.Date] = prev
		} else {
			delete(s.state.Records, rec.Date)
		}
		return err
	}
	return nil
}

// GuestRecords returns the stored records with from <= date <= to, oldest
// first.
func (s *Store) GuestRecords(from, to string) []model.PrayerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.PrayerRecord
	for date, rec := range s.state.Records {
		if date >= from && date <= to {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Dhikr returns the saved counter.
func (s *Store) Dhikr() dhikr.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Dhikr
}

// SaveDhikr persists the counter.
func (s *Store) SaveDhikr(c dhikr.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Dhikr
	s.state.Dhikr = c
	if err := s.flush(); err != nil {
		s.state.Dhikr = prev
		return err
	}
	return nil
}

func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	return nil
}
