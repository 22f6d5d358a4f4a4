package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
	"github.com/smokyabdulrahman/namaz/internal/quran"
	"github.com/smokyabdulrahman/namaz/internal/stats"
	"github.com/smokyabdulrahman/namaz/internal/tracker"
)

// Wednesday afternoon: Asr has passed, Maghrib is two hours away.
var fixedNow = time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	time.Local = time.UTC
	os.Exit(m.Run())
}

type cliEnv struct {
	t      *testing.T
	dir    string
	cache  string
	calls  atomic.Int32
	last   atomic.Value // request URI of the latest provider call
	adhan  *httptest.Server
	stdin  io.Reader
	stderr bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	e := &cliEnv{t: t, dir: t.TempDir()}
	e.cache = filepath.Join(e.dir, "cache")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(e.dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(e.dir, "data"))
	t.Setenv("HOME", e.dir)

	e.adhan = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		e.last.Store(r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Response{
			Code:   200,
			Status: "OK",
			Data: api.Data{
				Timings: api.Timings{
					Fajr: "05:00", Sunrise: "06:30", Dhuhr: "12:00", Asr: "15:00",
					Sunset: "18:00", Maghrib: "18:00", Isha: "19:30",
					Imsak: "04:50", Midnight: "00:00", Firstthird: "22:00", Lastthird: "02:00",
				},
				Date: api.DateInfo{Hijri: api.HijriDate{Day: "21", Month: api.HijriMonth{En: "Ramadan"}, Year: "1447"}},
				Meta: api.Meta{Latitude: 51.5, Longitude: -0.12, Timezone: "UTC"},
			},
		})
	}))
	t.Cleanup(e.adhan.Close)

	prevNow, prevAPI := now, newAPIClient
	now = func() time.Time { return fixedNow }
	newAPIClient = func() *api.Client {
		c := api.NewClient()
		c.BaseURL = e.adhan.URL
		return c
	}
	prevColor := display.Enabled()
	display.SetEnabled(false)
	t.Cleanup(func() {
		now, newAPIClient = prevNow, prevAPI
		display.SetEnabled(prevColor)
	})
	return e
}

// run executes namaz in-process at fixed London coordinates. Positional
// arguments after "--" stay last.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&e.stderr)
	if e.stdin != nil {
		cmd.SetIn(e.stdin)
	}
	common := []string{"--cache-dir", e.cache, "--latitude", "51.5", "--longitude", "-0.12"}
	full := append(slices.Clone(args), common...)
	if i := slices.Index(args, "--"); i >= 0 {
		full = slices.Concat(args[:i], common, args[i:])
	}
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("namaz %s: %v\nstderr: %s", strings.Join(args, " "), err, e.stderr.String())
	}
	return out
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return v
}

// ==================== root ====================

func TestVersionFlag(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("--version")
	if got := strings.TrimSpace(out); got != "namaz version test" {
		t.Errorf("--version = %q, want %q", got, "namaz version test")
	}
}

func TestMethodsSubcommand(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("methods")
	for _, m := range []string{"ISNA", "Muslim World League", "Umm Al-Qura", "Jafari", "Ministry of Awqaf, Jordan"} {
		if !strings.Contains(out, m) {
			t.Errorf("methods output missing %q", m)
		}
	}
	if len(CalculationMethods) != 23 {
		t.Errorf("CalculationMethods has %d entries, want 23", len(CalculationMethods))
	}
}

// ==================== today / next ====================

func TestToday_JSON(t *testing.T) {
	e := newCLIEnv(t)
	got := decodeJSON[todayJSON](t, e.mustRun("--json"))

	if got.Timings["fajr"] != "05:00" || got.Timings["isha"] != "19:30" {
		t.Errorf("timings = %v", got.Timings)
	}
	if _, ok := got.Timings["imsak"]; ok {
		t.Error("today view should only list the display rows")
	}
	if got.Current != "asr" {
		t.Errorf("current = %q, want asr", got.Current)
	}
	if got.Next.Prayer != "maghrib" || got.Next.RemainingSeconds != 7200 || got.Next.Remaining != "2h 0m" {
		t.Errorf("next = %+v", got.Next)
	}
	if got.Location.Timezone != "UTC" || got.Location.Fallback {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Date.Hijri != "21 Ramadan 1447 AH" {
		t.Errorf("hijri = %q", got.Date.Hijri)
	}
	if got.Cached {
		t.Error("first run should not be cached")
	}

	again := decodeJSON[todayJSON](t, e.mustRun("--json"))
	if !again.Cached {
		t.Error("second run should be served from the cache")
	}
}

func TestToday_Rich(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("--time-format", "12h")

	for _, want := range []string{"Prayer Times", "51.5000, -0.1200", "Wednesday, 11 March 2026", "6:00 PM  <- next in 2h 0m"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToday_SchoolUsesDateEndpoint(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("--json", "--school", "1")

	uri, _ := e.last.Load().(string)
	if !strings.HasPrefix(uri, "/timings/11-03-2026?") || !strings.Contains(uri, "school=1") {
		t.Errorf("provider request = %q, want the dated endpoint with school=1", uri)
	}
}

func TestToday_ProviderDown(t *testing.T) {
	e := newCLIEnv(t)
	e.adhan.Close()
	if _, err := e.run(); err == nil || !strings.Contains(err.Error(), "prayer times unavailable") {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestNext_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "Maghrib 18:00 (2h 0m)"},
		{"name-and-time", "Maghrib 18:00"},
		{"short-name-and-remaining", "M 2h 0m"},
		{"{{.Name}} in {{.Hours}}h", "Maghrib in 2h"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			e := newCLIEnv(t)
			args := []string{"next"}
			if tt.format != "" {
				args = append(args, "--format", tt.format)
			}
			if got := e.mustRun(args...); got != tt.want {
				t.Errorf("next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNext_Validation(t *testing.T) {
	e := newCLIEnv(t)
	if _, err := e.run("next", "--watch", "--interval", "10ms"); err == nil {
		t.Error("sub-second interval should be rejected")
	}
	if _, err := e.run("next", "--format", "bogus"); !errors.Is(err, prayer.ErrUnknownFormat) {
		t.Errorf("unknown format: err = %v", err)
	}
}

// ==================== list / query ====================

func TestList_JSON(t *testing.T) {
	e := newCLIEnv(t)
	got := decodeJSON[listJSONOutput](t, e.mustRun("list", "3", "--json"))

	if len(got.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(got.Days))
	}
	for i, want := range []string{"2026-03-11", "2026-03-12", "2026-03-13"} {
		if got.Days[i].Date != want {
			t.Errorf("day %d = %s, want %s", i, got.Days[i].Date, want)
		}
	}
	if got.Days[0].Timings["maghrib"] != "18:00" {
		t.Errorf("timings = %v", got.Days[0].Timings)
	}
	if n := e.calls.Load(); n != 3 {
		t.Errorf("provider calls = %d, want 3", n)
	}

	e.mustRun("list", "3", "--json")
	if n := e.calls.Load(); n != 3 {
		t.Errorf("cached days were fetched again: %d calls", n)
	}
}

func TestList_Table(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("week")
	for _, want := range []string{"Prayer Times, 7 Days", "Date", "Sunrise", "Wed 11 Mar", "Tue 17 Mar"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestList_InvalidDays(t *testing.T) {
	e := newCLIEnv(t)
	for _, arg := range []string{"0", "-2", "many"} {
		if _, err := e.run("list", arg); err == nil {
			t.Errorf("list %s should fail", arg)
		}
	}
}

func TestList_ConfiguredPrayers(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("config", "set", "prayers", "Fajr,Isha")
	got := decodeJSON[listJSONOutput](t, e.mustRun("list", "1", "--json"))
	if len(got.Days[0].Timings) != 2 || got.Days[0].Timings["isha"] != "19:30" {
		t.Errorf("timings = %v, want only fajr and isha", got.Days[0].Timings)
	}
}

func TestQuery(t *testing.T) {
	e := newCLIEnv(t)
	if got := e.mustRun("query", "isha"); got != "Isha 19:30\n" {
		t.Errorf("query isha = %q", got)
	}

	multi := decodeJSON[queryJSONMulti](t, e.mustRun("query", "FAJR", "--days", "week", "--json"))
	if multi.Prayer != "fajr" || len(multi.Days) != 7 || multi.Days[6].Date != "2026-03-17" {
		t.Errorf("query --days week = %+v", multi)
	}

	if _, err := e.run("query", "brunch"); err == nil || !strings.Contains(err.Error(), "unknown prayer") {
		t.Errorf("expected unknown prayer error, got %v", err)
	}
	if _, err := e.run("query", "fajr", "--days", "fortnight"); err == nil {
		t.Error("invalid --days should fail")
	}
}

func TestParseDays(t *testing.T) {
	tests := map[string]int{"": 1, "week": 7, "month": 30, "3": 3}
	for in, want := range tests {
		got, err := parseDays(in)
		if err != nil || got != want {
			t.Errorf("parseDays(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := parseDays("0"); err == nil {
		t.Error("parseDays(0) should fail")
	}
}

func TestSelectedNames(t *testing.T) {
	if got := selectedNames(""); len(got) != 6 || got[1] != "Sunrise" {
		t.Errorf("default names = %v", got)
	}
	if got := selectedNames(" Fajr, ,Isha "); len(got) != 2 || got[1] != "Isha" {
		t.Errorf("configured names = %v", got)
	}
}

// ==================== qibla ====================

func TestQibla(t *testing.T) {
	e := newCLIEnv(t)
	got := decodeJSON[qiblaJSON](t, e.mustRun("qibla", "--json"))
	if math.Abs(got.Bearing-119) > 1 || got.Direction != "ESE" {
		t.Errorf("bearing = %.1f %s, want about 119 ESE", got.Bearing, got.Direction)
	}
	if got.Heading != nil {
		t.Error("no heading without --heading")
	}

	got = decodeJSON[qiblaJSON](t, e.mustRun("qibla", "--json", "--heading", "100"))
	if got.Turn == nil || math.Abs(*got.Turn-(got.Bearing-100)) > 0.2 {
		t.Errorf("turn = %v, want bearing-100", got.Turn)
	}
}

func TestQibla_Stdin(t *testing.T) {
	e := newCLIEnv(t)
	e.stdin = strings.NewReader("90\nnot-a-heading\n\n{\"alpha\": 300}\n")
	out := e.mustRun("qibla", "--stdin", "--json")

	dec := json.NewDecoder(strings.NewReader(out))
	var headings []float64
	for {
		var r qiblaJSON
		if err := dec.Decode(&r); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		if r.Heading == nil {
			t.Fatal("reading without heading")
		}
		headings = append(headings, *r.Heading)
	}
	if len(headings) != 2 || headings[0] != 90 || headings[1] != 60 {
		t.Errorf("headings = %v, want [90 60]", headings)
	}
}

func TestDescribeTurn(t *testing.T) {
	tests := map[float64]string{0: "facing the qibla", 30: "turn right 30°", -45: "turn left 45°"}
	for turn, want := range tests {
		if got := describeTurn(turn); got != want {
			t.Errorf("describeTurn(%v) = %q, want %q", turn, got, want)
		}
	}
}

// ==================== tracking ====================

func TestCheck_Guest(t *testing.T) {
	e := newCLIEnv(t)

	res := decodeJSON[tracker.ToggleResult](t, e.mustRun("check", "asr", "--json"))
	if !res.Checked || !res.Record.Asr || res.Record.Date != "2026-03-11" {
		t.Errorf("first toggle = %+v", res)
	}
	if len(res.Unlocked) != 0 {
		t.Errorf("guests earn no achievements, got %v", res.Unlocked)
	}

	sum := decodeJSON[stats.Summary](t, e.mustRun("stats", "--json"))
	if sum.WeeklyTotal != 1 || sum.MonthTotal != 1 {
		t.Errorf("stats after one check = %+v", sum)
	}

	res = decodeJSON[tracker.ToggleResult](t, e.mustRun("check", "Asr", "--json"))
	if res.Checked || res.Record.Asr {
		t.Errorf("second toggle should uncheck, got %+v", res)
	}

	res = decodeJSON[tracker.ToggleResult](t, e.mustRun("check", "zuhr", "--date", "2026-03-10", "--json"))
	if res.Prayer != "Dhuhr" || res.Record.Date != "2026-03-10" {
		t.Errorf("back-dated toggle = %+v", res)
	}
}

func TestCheck_Validation(t *testing.T) {
	e := newCLIEnv(t)
	tests := [][]string{
		{"check", "witr"},
		{"check", "sunrise"},
		{"check", "fajr", "--date", "2026-03-12"},
		{"check", "fajr", "--date", "11/03/2026"},
	}
	for _, args := range tests {
		if _, err := e.run(args...); err == nil {
			t.Errorf("namaz %s should fail", strings.Join(args, " "))
		}
	}
}

func TestStats_Rich(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("check", "fajr")
	out := e.mustRun("stats")
	for _, want := range []string{"Current streak", "This week", "March 2026", "Su Mo Tu We Th Fr Sa"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestSignedOutCommands(t *testing.T) {
	e := newCLIEnv(t)
	for _, args := range [][]string{{"qada"}, {"leaderboard"}} {
		if _, err := e.run(args...); !errors.Is(err, errSignedOut) {
			t.Errorf("namaz %s: err = %v, want errSignedOut", args[0], err)
		}
	}
}

func TestSignedIn(t *testing.T) {
	e := newCLIEnv(t)
	userID := "7d0c7f4e-4b53-4f39-9b0b-1f0e4f1f2a10"
	e.mustRun("config", "set", "database_url", "sqlite://"+filepath.Join(e.dir, "namaz.db"))
	e.mustRun("config", "set", "user_id", userID)

	res := decodeJSON[tracker.ToggleResult](t, e.mustRun("check", "fajr", "--json"))
	if !res.Checked || res.Total != 1 {
		t.Errorf("toggle = %+v", res)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0] != "first_step" {
		t.Errorf("unlocked = %v, want [first_step]", res.Unlocked)
	}

	out := e.mustRun("check", "dhuhr")
	if !strings.Contains(out, "Total 2") {
		t.Errorf("signed-in output should show the total:\n%s", out)
	}

	qada := decodeJSON[map[string]any](t, e.mustRun("qada", "fajr", "3", "--json"))
	if qada["total"] != float64(3) {
		t.Errorf("qada total = %v, want 3", qada["total"])
	}
	qada = decodeJSON[map[string]any](t, e.mustRun("qada", "--json", "--", "fajr", "-5"))
	if qada["total"] != float64(0) {
		t.Errorf("qada should floor at zero, total = %v", qada["total"])
	}
	if _, err := e.run("qada", "fajr"); err == nil {
		t.Error("qada with a prayer but no delta should fail")
	}
	if _, err := e.run("qada", "fajr", "0"); err == nil {
		t.Error("zero delta should fail")
	}
	if _, err := e.run("qada", "fajr", "9223372036854775807"); err == nil {
		t.Error("delta beyond the per-call limit should fail")
	}

	if out := e.mustRun("leaderboard"); !strings.Contains(out, "No public profiles yet.") {
		t.Errorf("private profile should not be ranked:\n%s", out)
	}
	if _, err := e.run("leaderboard", "--limit", "101"); err == nil {
		t.Error("--limit 101 should fail")
	}
}

// ==================== dhikr ====================

func TestDhikr(t *testing.T) {
	e := newCLIEnv(t)

	got := decodeJSON[dhikrJSON](t, e.mustRun("dhikr", "inc", "34", "--json"))
	if got.Count != 34 || got.Rounds != 1 || got.Phrase.Translit != "SubhanAllah" {
		t.Errorf("after 34 = %+v", got)
	}

	got = decodeJSON[dhikrJSON](t, e.mustRun("dhikr", "--json"))
	if got.Count != 34 {
		t.Errorf("count not persisted: %+v", got)
	}

	got = decodeJSON[dhikrJSON](t, e.mustRun("dhikr", "select", "2", "--json"))
	if got.Count != 0 || got.Phrase.Translit != "Alhamdulillah" {
		t.Errorf("select = %+v", got)
	}

	got = decodeJSON[dhikrJSON](t, e.mustRun("dhikr", "goal", "100", "--json"))
	if got.Goal != 100 {
		t.Errorf("goal = %d", got.Goal)
	}

	for _, args := range [][]string{{"dhikr", "select", "9"}, {"dhikr", "goal", "50"}, {"dhikr", "inc", "0"}} {
		if _, err := e.run(args...); err == nil {
			t.Errorf("namaz %s should fail", strings.Join(args, " "))
		}
	}

	e.mustRun("dhikr", "inc")
	got = decodeJSON[dhikrJSON](t, e.mustRun("dhikr", "reset", "--json"))
	if got.Count != 0 || got.Index != 1 {
		t.Errorf("reset should keep the phrase, got %+v", got)
	}
}

// ==================== quran ====================

func TestQuran(t *testing.T) {
	e := newCLIEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chapters/1":
			w.Write([]byte(`{"chapter":{"id":1,"name_simple":"Al-Fatihah","name_arabic":"الفاتحة","revelation_place":"makkah","verses_count":1,"translated_name":{"name":"The Opener"}}}`))
		case "/verses/by_chapter/1":
			w.Write([]byte(`{"verses":[{"id":1,"verse_key":"1:1","text_uthmani":"بِسْمِ ٱللَّهِ","translations":[{"resource_id":131,"text":"In the Name of Allah<sup foot_note=1>1</sup>"}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	prev := newQuranClient
	newQuranClient = func() *quran.Client {
		c := quran.NewClient()
		c.BaseURL = srv.URL
		return c
	}
	t.Cleanup(func() { newQuranClient = prev })

	out := e.mustRun("quran", "1")
	for _, want := range []string{"1. Al-Fatihah", "The Opener, 1 verses, makkah", "1:1", "In the Name of Allah\n", quran.AudioURL(1)} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	got := decodeJSON[quranJSON](t, e.mustRun("quran", "1", "--json"))
	if got.Chapter.ID != 1 || len(got.Verses) != 1 || got.AudioURL != quran.AudioURL(1) {
		t.Errorf("json = %+v", got)
	}

	for _, arg := range []string{"0", "115", "fatihah"} {
		if _, err := e.run("quran", arg); err == nil {
			t.Errorf("quran %s should fail", arg)
		}
	}
	if _, err := e.run("quran", "2"); err == nil {
		t.Error("upstream 404 should fail")
	}
}

// ==================== config ====================

func TestConfigCommands(t *testing.T) {
	e := newCLIEnv(t)

	if got := e.mustRun("config", "set", "method", "4"); got != "Set method = 4\n" {
		t.Errorf("set = %q", got)
	}
	out := e.mustRun("config")
	if !strings.Contains(out, "4 (Umm Al-Qura University, Makkah)") || !strings.Contains(out, "(not set)") {
		t.Errorf("config show:\n%s", out)
	}

	want := filepath.Join(e.dir, "config", "namaz", "config.json")
	if got := strings.TrimSpace(e.mustRun("config", "path")); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}

	if _, err := e.run("config", "set", "method", "99"); err == nil {
		t.Error("method 99 should be rejected")
	}

	e.mustRun("config", "reset")
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Error("config reset should delete the file")
	}
}

func TestFormatValues(t *testing.T) {
	if got := formatMethodValue("2"); got != "2 (Islamic Society of North America (ISNA))" {
		t.Errorf("formatMethodValue(2) = %q", got)
	}
	if got := formatMethodValue("6"); got != "6" {
		t.Errorf("unknown method = %q", got)
	}
	if got := formatSchoolValue("1"); got != "1 (Hanafi)" {
		t.Errorf("formatSchoolValue(1) = %q", got)
	}
}

// ---------------------------------------------------------------------------
// token
// ---------------------------------------------------------------------------

func TestToken(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("JWT_SECRET", "local-secret")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(e.dir, "namaz.db"))
	t.Setenv("STORAGE_BACKEND", "")

	if _, err := e.run("token", "--env-file="); err == nil {
		t.Error("token without a user should fail")
	}

	user := "7d0c7f4e-4b53-4f39-9b0b-1f0e4f1f2a10"
	e.mustRun("config", "set", "user_id", user)
	got := decodeJSON[tokenJSON](t, e.mustRun("token", "--env-file=", "--ttl", "1h", "--json"))
	if got.UserID != user {
		t.Errorf("user_id = %q, want %q", got.UserID, user)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(got.Token, claims, func(*jwt.Token) (any, error) {
		return []byte("local-secret"), nil
	})
	if err != nil {
		t.Fatalf("token does not verify with JWT_SECRET: %v", err)
	}
	if claims.Subject != user {
		t.Errorf("sub = %q, want %q", claims.Subject, user)
	}

	if _, err := e.run("token", "--env-file=", "--user", "alice"); err == nil {
		t.Error("non-UUID user should fail")
	}
}
