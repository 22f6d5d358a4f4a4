package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-date format used for record keys and cache slots.
const DateLayout = "2006-01-02"

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Validate checks the coordinate is on the globe.
func (c Coordinate) Validate() error {
	return Validate(c)
}

// DailyTimings maps each daily prayer to its local time-of-day ("HH:MM").
type DailyTimings struct {
	Date     string            `json:"date"`
	Timings  map[Prayer]string `json:"timings"`
	Timezone string            `json:"timezone"`
}

// Proofs maps a prayer to the public URL of its photo proof.
// It is stored as a JSON object in a text column.
type Proofs map[Prayer]string

// Value implements driver.Valuer.
func (p Proofs) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Proofs) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Proofs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("proofs: unsupported type %T", src)
	}
	out := Proofs{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("proofs: %w", err)
		}
	}
	*p = out
	return nil
}

// PrayerRecord is one user's completion flags for one calendar date.
type PrayerRecord struct {
	UserID  string `json:"user_id" db:"user_id" validate:"required,uuid"`
	Date    string `json:"date" db:"day" validate:"required,datetime=2006-01-02"`
	Fajr    bool   `json:"fajr" db:"fajr"`
	Zuhr    bool   `json:"zuhr" db:"zuhr"`
	Asr     bool   `json:"asr" db:"asr"`
	Maghrib bool   `json:"maghrib" db:"maghrib"`
	Isha    bool   `json:"isha" db:"isha"`
	Proofs  Proofs `json:"proofs,omitempty" db:"proofs"`
}

// Get returns the flag for p. Non-daily prayers are always false.
func (r *PrayerRecord) Get(p Prayer) bool {
	switch p {
	case Fajr:
		return r.Fajr
	case Dhuhr:
		return r.Zuhr
	case Asr:
		return r.Asr
	case Maghrib:
		return r.Maghrib
	case Isha:
		return r.Isha
	}
	return false
}

// Set updates the flag for p.
func (r *PrayerRecord) Set(p Prayer, v bool) error {
	switch p {
	case Fajr:
		r.Fajr = v
	case Dhuhr:
		r.Zuhr = v
	case Asr:
		r.Asr = v
	case Maghrib:
		r.Maghrib = v
	case Isha:
		r.Isha = v
	default:
		return fmt.Errorf("%w: %s is not a daily prayer", ErrInvalidPrayer, p)
	}
	return nil
}

// Count returns how many of the five flags are set.
func (r *PrayerRecord) Count() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range DailyPrayers {
		if r.Get(p) {
			n++
		}
	}
	return n
}

// Perfect reports whether all five prayers were completed.
func (r *PrayerRecord) Perfect() bool {
	return r.Count() == len(DailyPrayers)
}

// QadaCounts is the outstanding debt of missed prayers per category.
type QadaCounts struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Fajr      int       `json:"fajr" db:"fajr" validate:"gte=0"`
	Zuhr      int       `json:"zuhr" db:"zuhr" validate:"gte=0"`
	Asr       int       `json:"asr" db:"asr" validate:"gte=0"`
	Maghrib   int       `json:"maghrib" db:"maghrib" validate:"gte=0"`
	Isha      int       `json:"isha" db:"isha" validate:"gte=0"`
	Witr      int       `json:"witr" db:"witr" validate:"gte=0"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (q *QadaCounts) field(p Prayer) (*int, error) {
	switch p {
	case Fajr:
		return &q.Fajr, nil
	case Dhuhr:
		return &q.Zuhr, nil
	case Asr:
		return &q.Asr, nil
	case Maghrib:
		return &q.Maghrib, nil
	case Isha:
		return &q.Isha, nil
	case Witr:
		return &q.Witr, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidPrayer, p)
}

// Get returns the counter for p.
func (q *QadaCounts) Get(p Prayer) int {
	f, err := q.field(p)
	if err != nil {
		return 0
	}
	return *f
}

// Bounds for make-up counters. MaxQadaCount fits a 32-bit INTEGER column.
const (
	MaxQadaDelta = 1000
	MaxQadaCount = 1_000_000
)

// Adjust adds delta to the counter for p. Counters stay within
// [0, MaxQadaCount]; a delta larger than MaxQadaDelta either way is rejected.
func (q *QadaCounts) Adjust(p Prayer, delta int) error {
	f, err := q.field(p)
	if err != nil {
		return err
	}
	if delta < -MaxQadaDelta || delta > MaxQadaDelta {
		return fmt.Errorf("%w: qada delta %d outside ±%d", ErrInvalidRecord, delta, MaxQadaDelta)
	}
	*f = min(max(*f+delta, 0), MaxQadaCount)
	return nil
}

// Total is the sum of every counter.
func (q *QadaCounts) Total() int {
	n := 0
	for _, p := range QadaPrayers {
		n += q.Get(p)
	}
	return n
}

// Achievement is a catalog entry.
type Achievement struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon" db:"icon"`
	Tier        string `json:"tier" db:"tier"`
	Secret      bool   `json:"secret" db:"secret"`
}

// AchievementUnlock marks a one-time unlock event.
type AchievementUnlock struct {
	UserID        string    `json:"user_id" db:"user_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementWithStatus is a catalog entry annotated for one user.
type AchievementWithStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Profile is the public-facing aggregate for a user. TotalPrayers and
// CurrentStreak are kept alongside the record history for fast leaderboard
// queries and are maintained incrementally.
type Profile struct {
	ID            string    `json:"id" db:"id" validate:"required,uuid"`
	Name          string    `json:"name" db:"name" validate:"max=80"`
	AvatarURL     string    `json:"avatar_url" db:"avatar_url" validate:"omitempty,url"`
	TotalPrayers  int       `json:"total_prayers" db:"total_prayers" validate:"gte=0"`
	CurrentStreak int       `json:"current_streak" db:"current_streak" validate:"gte=0"`
	IsPublic      bool      `json:"is_public" db:"is_public"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CompletionPercent compares TotalPrayers with five prayers per day since
// the profile was created, capped at 100.
func (p *Profile) CompletionPercent(now time.Time) int {
	days := int(now.Sub(p.CreatedAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	pct := int(math.Round(float64(p.TotalPrayers) / float64(days*len(DailyPrayers)) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// LeaderboardEntry is one ranked public profile.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id" db:"id"`
	Name          string `json:"name" db:"name"`
	AvatarURL     string `json:"avatar_url" db:"avatar_url"`
	CurrentStreak int    `json:"current_streak" db:"current_streak"`
	TotalPrayers  int    `json:"total_prayers" db:"total_prayers"`
}
