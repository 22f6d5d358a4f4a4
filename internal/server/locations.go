package server

import (
	"fmt"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

// DefaultMaxLocations caps how many coordinates keep a timings service.
const DefaultMaxLocations = 1024

// locationPool keeps one timings service per rounded coordinate, so nearby
// requests share slots. Two decimals is roughly a kilometre, well inside the
// provider's resolution. The least recently used coordinates are dropped once
// the pool is full; with Redis their slots survive and are picked up again.
type locationPool struct {
	fetcher timings.Fetcher
	method  int
	rdb     *redis.Client
	now     func() time.Time

	mu       sync.Mutex
	services *lru.Cache[string, *timings.Service]
	draining sync.WaitGroup
}

func newLocationPool(fetcher timings.Fetcher, method int, rdb *redis.Client, now func() time.Time, limit int) *locationPool {
	if limit <= 0 {
		limit = DefaultMaxLocations
	}
	p := &locationPool{
		fetcher: fetcher,
		method:  method,
		rdb:     rdb,
		now:     now,
	}
	// The error is only for a non-positive size.
	p.services, _ = lru.NewWithEvict(limit, func(_ string, svc *timings.Service) {
		p.draining.Add(1)
		go func() {
			defer p.draining.Done()
			svc.Wait()
		}()
	})
	return p
}

func roundCoord(c model.Coordinate) model.Coordinate {
	return model.Coordinate{
		Latitude:  math.Round(c.Latitude*100) / 100,
		Longitude: math.Round(c.Longitude*100) / 100,
	}
}

// For returns the service for the rounded coordinate and the coordinate it
// computes timings for.
func (p *locationPool) For(c model.Coordinate) (*timings.Service, model.Coordinate) {
	c = roundCoord(c)
	key := fmt.Sprintf("%.2f,%.2f/m%d", c.Latitude, c.Longitude, p.method)

	p.mu.Lock()
	defer p.mu.Unlock()
	if svc, ok := p.services.Get(key); ok {
		return svc, c
	}

	var store cache.Store = cache.NewMemory()
	if p.rdb != nil {
		store = cache.NewRedisStore(p.rdb).Scoped(key)
	}
	svc := timings.New(store, p.fetcher, timings.WithMethod(p.method), timings.WithClock(p.now))
	p.services.Add(key, svc)
	return svc, c
}

// Len is the number of coordinates currently held.
func (p *locationPool) Len() int {
	return p.services.Len()
}

// Wait blocks until background refreshes of every service, including
// evicted ones, finish.
func (p *locationPool) Wait() {
	p.mu.Lock()
	svcs := p.services.Values()
	p.mu.Unlock()
	for _, s := range svcs {
		s.Wait()
	}
	p.draining.Wait()
}
