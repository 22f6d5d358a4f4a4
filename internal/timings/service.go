// Package timings serves the day's prayer times cache-first. A cached slot is
// returned at once and refreshed in the background; without a slot the call
// blocks on the provider, falling back to a default location when the
// caller has no coordinates.
package timings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/model"
)

const (
	refreshTimeout = 15 * time.Second
	spanLimit      = 4
)

// Fetcher is the prayer-time provider. *api.Client satisfies it.
// FetchByCoordinates is only used when an Asr school is configured.
type Fetcher interface {
	FetchByTimestamp(ctx context.Context, unix int64, lat, lon float64, method int) (*api.Response, error)
	FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, method, school int) (*api.Response, error)
}

var _ Fetcher = (*api.Client)(nil)

// Result is what Get hands back to the view.
type Result struct {
	Entry *cache.Entry
	// Location is what the timings were computed for. Zero when served from
	// the cache without coordinates.
	Location model.Coordinate
	// FromCache is set when the entry came from the slot, before any network.
	FromCache bool
	// Fallback is set when the default location was used.
	Fallback bool
}

// Service reads and refreshes per-date slots.
type Service struct {
	store   cache.Store
	fetcher Fetcher
	method  int
	school  int
	now     func() time.Time

	mu        sync.Mutex
	onRefresh func(*cache.Entry)
	wg        sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithMethod sets the calculation method code sent to the provider.
func WithMethod(m int) Option { return func(s *Service) { s.method = m } }

// WithSchool sets the Asr juristic school (0 Shafi, 1 Hanafi). Negative
// leaves it to the provider.
func WithSchool(school int) Option { return func(s *Service) { s.school = school } }

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service. store may be nil, in which case slots live in memory.
func New(store cache.Store, fetcher Fetcher, opts ...Option) *Service {
	if store == nil {
		store = cache.NewMemory()
	}
	s := &Service{store: store, fetcher: fetcher, method: api.DefaultMethod, school: -1, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnRefresh registers a callback invoked after a background refresh stored
// fresher timings. It replaces any earlier callback.
func (s *Service) OnRefresh(fn func(*cache.Entry)) {
	s.mu.Lock()
	s.onRefresh = fn
	s.mu.Unlock()
}

// Today is the slot date for the current wall-clock day.
func (s *Service) Today() string {
	return s.now().Format(model.DateLayout)
}

// Get returns today's timings. coord may be nil when the position is unknown.
func (s *Service) Get(ctx context.Context, coord *model.Coordinate) (*Result, error) {
	today := s.Today()

	cached, err := s.store.LoadTimings(ctx, today)
	if err != nil {
		log.Warn().Err(err).Str("date", today).Msg("timings cache read failed")
	}
	if cached != nil {
		if coord != nil {
			s.refresh(ctx, *coord, today)
		}
		res := &Result{Entry: cached, FromCache: true}
		if coord != nil {
			res.Location = *coord
		}
		return res, nil
	}

	res := &Result{}
	if coord != nil {
		res.Location = *coord
	} else {
		res.Location = geo.Default.Coordinate()
		res.Fallback = true
	}

	entry, err := s.fetch(ctx, res.Location, s.now())
	if err != nil {
		return nil, err
	}
	s.save(ctx, entry)
	res.Entry = entry
	return res, nil
}

// ForDate returns the timings for an arbitrary day, cache-first, blocking on
// the provider when the slot is empty.
func (s *Service) ForDate(ctx context.Context, coord model.Coordinate, day time.Time) (*cache.Entry, error) {
	date := day.Format(model.DateLayout)
	if cached, err := s.store.LoadTimings(ctx, date); err == nil && cached != nil {
		return cached, nil
	}
	entry, err := s.fetch(ctx, coord, day)
	if err != nil {
		return nil, err
	}
	s.save(ctx, entry)
	return entry, nil
}

// Span returns the entries for days consecutive days starting at first, each
// cache-first as in ForDate, with a few provider requests in flight at a time.
func (s *Service) Span(ctx context.Context, coord model.Coordinate, first time.Time, days int) ([]*cache.Entry, error) {
	if days <= 0 {
		return nil, nil
	}
	entries := make([]*cache.Entry, days)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spanLimit)
	for i := range days {
		day := first.AddDate(0, 0, i)
		g.Go(func() error {
			e, err := s.ForDate(gctx, coord, day)
			if err != nil {
				return fmt.Errorf("prayer times for %s: %w", day.Format(model.DateLayout), err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Wait blocks until background refreshes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) refresh(ctx context.Context, coord model.Coordinate, date string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		entry, err := s.fetch(ctx, coord, s.now())
		if err != nil {
			log.Debug().Err(err).Str("date", date).Msg("background timings refresh failed; keeping cached slot")
			return
		}
		if entry.Date != date {
			return
		}
		s.save(ctx, entry)

		s.mu.Lock()
		fn := s.onRefresh
		s.mu.Unlock()
		if fn != nil {
			fn(entry)
		}
	}()
}

func (s *Service) fetch(ctx context.Context, coord model.Coordinate, at time.Time) (*cache.Entry, error) {
	if s.fetcher == nil {
		return nil, errors.New("no timings provider configured")
	}
	var (
		resp *api.Response
		err  error
	)
	if s.school >= 0 {
		resp, err = s.fetcher.FetchByCoordinates(ctx, at, coord.Latitude, coord.Longitude, s.method, s.school)
	} else {
		resp, err = s.fetcher.FetchByTimestamp(ctx, at.Unix(), coord.Latitude, coord.Longitude, s.method)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch timings for %s: %w", at.Format(model.DateLayout), err)
	}
	return cache.NewEntry(at.Format(model.DateLayout), resp, s.now()), nil
}

func (s *Service) save(ctx context.Context, entry *cache.Entry) {
	if err := s.store.SaveTimings(ctx, entry); err != nil {
		log.Warn().Err(err).Str("date", entry.Date).Msg("timings cache write failed")
	}
}
