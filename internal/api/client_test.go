package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func sampleResponse() Response {
	return Response{
		Code:   200,
		Status: "OK",
		Data: Data{
			Timings: Timings{
				Fajr:       "05:17",
				Sunrise:    "06:48",
				Dhuhr:      "12:13",
				Asr:        "15:02",
				Sunset:     "17:39",
				Maghrib:    "17:39",
				Isha:       "19:10",
				Imsak:      "05:07",
				Midnight:   "00:14",
				Firstthird: "22:02",
				Lastthird:  "02:25",
			},
			Date: DateInfo{
				Hijri: HijriDate{Day: "10", Month: HijriMonth{Number: 9, En: "Ramaḍān"}, Year: "1447"},
			},
			Meta: Meta{
				Latitude:  51.5074,
				Longitude: -0.1278,
				Timezone:  "Europe/London",
				Method:    MethodInfo{ID: 2, Name: "ISNA"},
			},
		},
	}
}

// provider answers every request with body and status, recording the last
// request it saw.
type provider struct {
	status int
	body   string
	last   *http.Request
}

func (p *provider) start(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.last = r
		w.Header().Set("Content-Type", "application/json")
		if p.status != 0 {
			w.WriteHeader(p.status)
		}
		if p.body != "" {
			w.Write([]byte(p.body))
			return
		}
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	t.Cleanup(srv.Close)

	c := NewClient()
	c.BaseURL = srv.URL
	return c
}

func TestNewClient(t *testing.T) {
	c := NewClient()
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
}

func TestFetchByTimestamp(t *testing.T) {
	p := &provider{}
	c := p.start(t)

	got, err := c.FetchByTimestamp(context.Background(), 1772262000, 51.5074, -0.1278, DefaultMethod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.last.URL.Path != "/timings/1772262000" {
		t.Errorf("path = %s", p.last.URL.Path)
	}
	q := p.last.URL.Query()
	if q.Get("latitude") != "51.507400" || q.Get("longitude") != "-0.127800" {
		t.Errorf("coords = %q,%q", q.Get("latitude"), q.Get("longitude"))
	}
	if q.Get("method") != "2" {
		t.Errorf("method = %q, want 2", q.Get("method"))
	}
	if q.Has("school") {
		t.Error("school should not be sent")
	}
	if got.Data.Timings.Fajr != "05:17" || got.Data.Meta.Timezone != "Europe/London" {
		t.Errorf("decoded %+v", got.Data)
	}
	if got.Data.Date.Hijri.Format() != "10 Ramaḍān 1447 AH" {
		t.Errorf("Hijri = %q", got.Data.Date.Hijri.Format())
	}
}

func TestFetchByTimestamp_NoMethod(t *testing.T) {
	p := &provider{}
	c := p.start(t)

	if _, err := c.FetchByTimestamp(context.Background(), 1, 0, 0, -1); err != nil {
		t.Fatal(err)
	}
	if p.last.URL.Query().Has("method") {
		t.Errorf("negative method should be omitted, got %q", p.last.URL.RawQuery)
	}
}

func TestFetchByCity(t *testing.T) {
	p := &provider{}
	c := p.start(t)

	date := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	got, err := c.FetchByCity(context.Background(), date, "São Paulo", "Brazil", 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.last.URL.Path != "/timingsByCity/28-02-2026" {
		t.Errorf("path = %s", p.last.URL.Path)
	}
	want := url.Values{
		"city":    {"São Paulo"},
		"country": {"Brazil"},
		"method":  {"3"},
		"school":  {"1"},
	}
	if q := p.last.URL.Query(); q.Encode() != want.Encode() {
		t.Errorf("query = %s, want %s", q.Encode(), want.Encode())
	}
	if got.Data.Meta.Latitude != 51.5074 {
		t.Errorf("Latitude = %v", got.Data.Meta.Latitude)
	}
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http status", http.StatusServiceUnavailable, "down for maintenance", "status 503: down for maintenance"},
		{"bad json", 0, "{not json", "decode"},
		{"api code", 0, `{"code":400,"status":"BAD_REQUEST"}`, "code=400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &provider{status: tt.status, body: tt.body}
			c := p.start(t)

			_, err := c.FetchByTimestamp(context.Background(), 1, 0, 0, -1)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	c := NewClient()
	c.BaseURL = "http://127.0.0.1:1"

	if _, err := c.FetchByCity(context.Background(), time.Now(), "London", "UK", -1, -1); err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

func TestFetchByTimestamp_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient()
	c.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchByTimestamp(ctx, 1, 0, 0, -1); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestFetchByCoordinates(t *testing.T) {
	p := &provider{}
	c := p.start(t)

	date := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	if _, err := c.FetchByCoordinates(context.Background(), date, 21.4225, 39.8262, 4, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.last.URL.Path != "/timings/28-02-2026" {
		t.Errorf("path = %s", p.last.URL.Path)
	}
	q := p.last.URL.Query()
	if q.Get("latitude") != "21.422500" || q.Get("method") != "4" || q.Get("school") != "1" {
		t.Errorf("query = %s", p.last.URL.RawQuery)
	}
}
