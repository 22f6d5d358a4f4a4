package timings

import (
	"context"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
)

// Location returns the zone the entry's times are expressed in, falling back
// to fallback when the provider label is unknown.
func Location(e *cache.Entry, fallback *time.Location) *time.Location {
	if e != nil && e.Meta.Timezone != "" {
		if loc, err := time.LoadLocation(e.Meta.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

// Events parses an entry into the five daily prayer events.
func Events(e *cache.Entry, fallback *time.Location) ([]prayer.Event, error) {
	loc := Location(e, fallback)
	day, err := time.ParseInLocation(model.DateLayout, e.Date, loc)
	if err != nil {
		return nil, err
	}
	return prayer.ParseDaily(e.Daily(), day, loc)
}

// DaySource feeds a countdown from this service for a fixed coordinate.
func (s *Service) DaySource(coord model.Coordinate) prayer.DaySource {
	return func(ctx context.Context, now time.Time) ([]prayer.Event, error) {
		entry, err := s.ForDate(ctx, coord, now)
		if err != nil {
			return nil, err
		}
		return Events(entry, now.Location())
	}
}
