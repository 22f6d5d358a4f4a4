package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

// newAPIClient builds the prayer-time client. Tests point it at httptest.
var newAPIClient = api.NewClient

// session bundles what the timing commands share: the merged config, the
// file cache and a timings service on top of it.
type session struct {
	cfg    *config.Config
	files  *cache.FileStore // nil when the cache directory is unusable
	client *api.Client
	svc    *timings.Service
}

func openSession(cmd *cobra.Command) *session {
	cfg := effectiveConfig(cmd)
	s := &session{cfg: cfg, client: newAPIClient()}

	var store cache.Store
	files, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		store = cache.NewMemory()
	} else {
		s.files = files
		store = files
	}
	s.svc = timings.New(store, s.client,
		timings.WithMethod(cfg.MethodOrDefault(config.DefaultMethod)),
		timings.WithSchool(cfg.SchoolOrDefault(-1)),
		timings.WithClock(now),
	)
	return s
}

// close waits for background refreshes so a revalidated slot is written
// before the process exits.
func (s *session) close() { s.svc.Wait() }

// locate resolves the observer: configured coordinates, then the configured
// city, then IP detection. When all of them fail it returns the default
// location and false.
func (s *session) locate(ctx context.Context) (*geo.Location, bool) {
	var chain geo.Chain
	if c := s.cfg.Coordinate(); c != nil {
		chain = append(chain, geo.Static{Location: geo.Location{
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			City:      s.cfg.City,
			Country:   s.cfg.Country,
		}})
	}
	if s.cfg.City != "" && s.cfg.Country != "" {
		chain = append(chain, cityLocator{
			client:  s.client,
			city:    s.cfg.City,
			country: s.cfg.Country,
			method:  s.cfg.MethodOrDefault(config.DefaultMethod),
			school:  s.cfg.SchoolOrDefault(-1),
		})
	}
	ip := geo.IPLocator{}
	if s.files != nil {
		ip.Memo = s.files
	}
	chain = append(chain, ip)

	loc, err := chain.Locate(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("location unknown, using fallback")
		d := geo.Default
		return &d, false
	}
	return loc, true
}

// zone is the location's time zone, or the local zone when it has none or
// it cannot be loaded.
func zone(loc *geo.Location) *time.Location {
	if loc.Timezone != "" {
		if z, err := time.LoadLocation(loc.Timezone); err == nil {
			return z
		}
	}
	return time.Local
}

// cityLocator asks the provider for today's timings by city and keeps the
// coordinates and zone it resolved the city to.
type cityLocator struct {
	client        *api.Client
	city, country string
	method        int
	school        int
}

func (l cityLocator) Locate(ctx context.Context) (*geo.Location, error) {
	resp, err := l.client.FetchByCity(ctx, now(), l.city, l.country, l.method, l.school)
	if err != nil {
		return nil, fmt.Errorf("resolve %s, %s: %w", l.city, l.country, err)
	}
	m := resp.Data.Meta
	return &geo.Location{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		City:      l.city,
		Country:   l.country,
		Timezone:  m.Timezone,
	}, nil
}
