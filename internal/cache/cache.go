// Package cache persists one prayer-times slot per calendar date. A slot is
// overwritten whenever fresher timings arrive and is never evicted.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/model"
)

// SlotPrefix is prepended to the date to form a slot key.
const SlotPrefix = "namaz-timings-"

const (
	geoCacheFile = "geolocation.json"
	geoTTL       = 24 * time.Hour
)

// SlotKey returns the storage key for a "YYYY-MM-DD" date.
func SlotKey(date string) string {
	return SlotPrefix + date
}

// Store reads and writes per-date timings slots. A missing slot is reported
// as a nil entry and a nil error.
type Store interface {
	LoadTimings(ctx context.Context, date string) (*Entry, error)
	SaveTimings(ctx context.Context, e *Entry) error
}

// Entry is one cached day of timings.
type Entry struct {
	Date      string        `json:"date"` // YYYY-MM-DD
	Timings   api.Timings   `json:"timings"`
	Meta      api.Meta      `json:"meta"`
	Hijri     api.HijriDate `json:"hijri"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// NewEntry builds the slot for date from an API response.
func NewEntry(date string, resp *api.Response, fetchedAt time.Time) *Entry {
	return &Entry{
		Date:      date,
		Timings:   resp.Data.Timings,
		Meta:      resp.Data.Meta,
		Hijri:     resp.Data.Date.Hijri,
		FetchedAt: fetchedAt,
	}
}

// Daily converts the entry to the five daily prayer times.
func (e *Entry) Daily() model.DailyTimings {
	return model.DailyTimings{
		Date:     e.Date,
		Timings:  e.Timings.Daily(),
		Timezone: e.Meta.Timezone,
	}
}

// FileStore keeps each slot as a JSON file in a directory. It also remembers
// the last IP geolocation for a day.
type FileStore struct {
	dir string
}

var (
	_ Store    = (*FileStore)(nil)
	_ geo.Memo = (*FileStore)(nil)
)

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// New creates a FileStore rooted at dir. If dir is empty, it defaults to
// ~/.cache/namaz/.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "namaz")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (c *FileStore) Dir() string { return c.dir }

func (c *FileStore) slotPath(date string) string {
	return filepath.Join(c.dir, SlotKey(date)+".json")
}

// LoadTimings reads the slot for date. Unreadable or mismatched slots count
// as a miss.
func (c *FileStore) LoadTimings(_ context.Context, date string) (*Entry, error) {
	data, err := os.ReadFile(c.slotPath(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache slot %s: %w", date, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil
	}
	if entry.Date != date {
		return nil, nil
	}

	return &entry, nil
}

// SaveTimings overwrites the slot for e.Date.
func (c *FileStore) SaveTimings(_ context.Context, e *Entry) error {
	if e == nil || e.Date == "" {
		return errors.New("cache entry has no date")
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := c.slotPath(e.Date) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.slotPath(e.Date)); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *FileStore) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *FileStore) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
