package timings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
)

var fixedNow = time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func responseWithFajr(fajr string) *api.Response {
	return &api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: api.Timings{
				Fajr: fajr, Sunrise: "06:30", Dhuhr: "12:00", Asr: "15:30",
				Maghrib: "18:00", Isha: "19:30",
			},
			Meta: api.Meta{Timezone: "UTC"},
		},
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	schools []int
	fajr    string
	err     error
}

func (f *fakeFetcher) FetchByTimestamp(_ context.Context, unix int64, lat, lon float64, method int) (*api.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Unix(unix, 0).UTC().Format(model.DateLayout))
	if f.err != nil {
		return nil, f.err
	}
	return responseWithFajr(f.fajr), nil
}

func (f *fakeFetcher) FetchByCoordinates(_ context.Context, date time.Time, lat, lon float64, method, school int) (*api.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date.Format(model.DateLayout))
	f.schools = append(f.schools, school)
	if f.err != nil {
		return nil, f.err
	}
	return responseWithFajr(f.fajr), nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestGet_CacheFirstBeforeNetwork(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		json.NewEncoder(w).Encode(responseWithFajr("05:01"))
	}))
	defer server.Close()

	client := api.NewClient()
	client.BaseURL = server.URL

	store := cache.NewMemory()
	ctx := context.Background()
	_ = store.SaveTimings(ctx, cache.NewEntry("2026-03-11", responseWithFajr("05:00"), fixedNow))

	svc := New(store, client, WithClock(clock))
	refreshed := make(chan *cache.Entry, 1)
	svc.OnRefresh(func(e *cache.Entry) { refreshed <- e })

	coord := model.Coordinate{Latitude: 51.5, Longitude: -0.12}
	res, err := svc.Get(ctx, &coord)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FromCache || res.Entry.Timings.Fajr != "05:00" {
		t.Fatalf("Get = %+v, want cached slot", res)
	}

	// The provider has not answered yet.
	close(release)
	select {
	case e := <-refreshed:
		if e.Timings.Fajr != "05:01" {
			t.Errorf("refreshed Fajr = %q, want 05:01", e.Timings.Fajr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("background refresh never completed")
	}
	svc.Wait()

	slot, _ := store.LoadTimings(ctx, "2026-03-11")
	if slot.Timings.Fajr != "05:01" {
		t.Errorf("slot not overwritten: %q", slot.Timings.Fajr)
	}
	if hits.Load() != 1 {
		t.Errorf("provider hits = %d, want 1", hits.Load())
	}
}

func TestGet_CachedWithoutCoordinatesSkipsRefresh(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()
	_ = store.SaveTimings(ctx, cache.NewEntry("2026-03-11", responseWithFajr("05:00"), fixedNow))

	f := &fakeFetcher{fajr: "05:01"}
	svc := New(store, f, WithClock(clock))

	res, err := svc.Get(ctx, nil)
	if err != nil || !res.FromCache {
		t.Fatalf("Get = %+v, %v", res, err)
	}
	svc.Wait()
	if f.count() != 0 {
		t.Errorf("provider called %d times, want 0", f.count())
	}
}

func TestGet_MissFallsBackToDefaultLocation(t *testing.T) {
	var gotLat, gotLng string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLat, gotLng = r.URL.Query().Get("latitude"), r.URL.Query().Get("longitude")
		if r.URL.Query().Get("method") != "2" {
			t.Errorf("method = %q, want 2", r.URL.Query().Get("method"))
		}
		json.NewEncoder(w).Encode(responseWithFajr("05:00"))
	}))
	defer server.Close()

	client := api.NewClient()
	client.BaseURL = server.URL

	store := cache.NewMemory()
	svc := New(store, client, WithClock(clock))

	res, err := svc.Get(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback || res.FromCache {
		t.Errorf("Get = %+v, want fallback fetch", res)
	}
	if gotLat != "51.507400" || gotLng != "-0.127800" {
		t.Errorf("requested %s,%s; want London", gotLat, gotLng)
	}
	if slot, _ := store.LoadTimings(context.Background(), "2026-03-11"); slot == nil {
		t.Error("fetched timings were not cached")
	}
}

func TestGet_MissAndNetworkDown(t *testing.T) {
	f := &fakeFetcher{err: errors.New("offline")}
	svc := New(nil, f, WithClock(clock))

	coord := model.Coordinate{Latitude: 1, Longitude: 2}
	_, err := svc.Get(context.Background(), &coord)
	if err == nil || !strings.Contains(err.Error(), "offline") {
		t.Errorf("err = %v, want offline", err)
	}
}

func TestGet_RefreshFailureKeepsSlot(t *testing.T) {
	store := cache.NewMemory()
	ctx := context.Background()
	_ = store.SaveTimings(ctx, cache.NewEntry("2026-03-11", responseWithFajr("05:00"), fixedNow))

	svc := New(store, &fakeFetcher{err: errors.New("offline")}, WithClock(clock))
	coord := model.Coordinate{Latitude: 1, Longitude: 2}
	if _, err := svc.Get(ctx, &coord); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Wait()

	slot, _ := store.LoadTimings(ctx, "2026-03-11")
	if slot.Timings.Fajr != "05:00" {
		t.Errorf("slot changed after failed refresh: %q", slot.Timings.Fajr)
	}
}

// ---------------------------------------------------------------------------
// ForDate / Span / DaySource
// ---------------------------------------------------------------------------

func TestSpan(t *testing.T) {
	f := &fakeFetcher{fajr: "05:00"}
	store := cache.NewMemory()
	ctx := context.Background()
	_ = store.SaveTimings(ctx, cache.NewEntry("2026-03-13", responseWithFajr("04:58"), fixedNow))
	svc := New(store, f, WithClock(clock))

	entries, err := svc.Span(ctx, model.Coordinate{}, fixedNow.AddDate(0, 0, 1), 7)
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if len(entries) != 7 {
		t.Fatalf("entries = %d, want 7", len(entries))
	}
	if f.count() != 6 {
		t.Errorf("fetches = %d, want 6 with one day already cached", f.count())
	}
	if entries[0].Date != "2026-03-12" || entries[6].Date != "2026-03-18" {
		t.Errorf("span = %s..%s", entries[0].Date, entries[6].Date)
	}
	if entries[1].Timings.Fajr != "04:58" {
		t.Errorf("13 March Fajr = %q, want cached 04:58", entries[1].Timings.Fajr)
	}
	if slot, _ := store.LoadTimings(ctx, "2026-03-18"); slot == nil {
		t.Error("fetched days should be saved")
	}
}

func TestSpan_Error(t *testing.T) {
	svc := New(nil, &fakeFetcher{err: errors.New("offline")}, WithClock(clock))
	if _, err := svc.Span(context.Background(), model.Coordinate{}, fixedNow, 3); err == nil || !strings.Contains(err.Error(), "offline") {
		t.Errorf("err = %v, want provider failure", err)
	}
	if entries, err := svc.Span(context.Background(), model.Coordinate{}, fixedNow, 0); err != nil || entries != nil {
		t.Errorf("empty span = %v, %v", entries, err)
	}
}

func TestForDate_UsesCache(t *testing.T) {
	f := &fakeFetcher{fajr: "05:00"}
	svc := New(nil, f, WithClock(clock))
	day := fixedNow.AddDate(0, 0, 1)

	for i := 0; i < 2; i++ {
		if _, err := svc.ForDate(context.Background(), model.Coordinate{}, day); err != nil {
			t.Fatalf("ForDate: %v", err)
		}
	}
	if f.count() != 1 {
		t.Errorf("fetches = %d, want 1", f.count())
	}
}

func TestDaySource_DrivesCountdown(t *testing.T) {
	svc := New(nil, &fakeFetcher{fajr: "05:00"}, WithClock(clock))
	cd := prayer.NewCountdown(svc.DaySource(model.Coordinate{}))

	st, err := cd.Tick(context.Background(), fixedNow)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if st.Next.Prayer != model.Maghrib || st.Label != "2h 0m" {
		t.Errorf("state = %+v", st)
	}
}

func TestForDate_SchoolSelectsDateEndpoint(t *testing.T) {
	f := &fakeFetcher{fajr: "05:00"}
	svc := New(nil, f, WithClock(clock), WithSchool(1))

	entry, err := svc.ForDate(context.Background(), model.Coordinate{}, fixedNow.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	if entry.Date != "2026-03-13" {
		t.Errorf("Date = %s", entry.Date)
	}
	if len(f.schools) != 1 || f.schools[0] != 1 {
		t.Errorf("school sent = %v, want [1]", f.schools)
	}

	plain := &fakeFetcher{fajr: "05:00"}
	if _, err := New(nil, plain, WithClock(clock)).ForDate(context.Background(), model.Coordinate{}, fixedNow); err != nil {
		t.Fatal(err)
	}
	if len(plain.schools) != 0 || plain.count() != 1 {
		t.Errorf("without a school the timestamp endpoint should be used, schools = %v", plain.schools)
	}
}
