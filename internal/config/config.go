// Package config holds the user's CLI preferences and the server's
// environment settings.
//
// CLI preferences are stored as JSON at ~/.config/namaz/config.json
// (XDG-compliant). The merge priority is: CLI flags > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

const (
	configDirName  = "namaz"
	configFileName = "config.json"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"method", "school",
	"time_format",
	"prayers",
	"cache_dir",
	"theme",
	"photo_proofs", "ads_enabled",
	"database_url", "user_id",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City       string  `json:"city,omitempty"`
	Country    string  `json:"country,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Method     *int    `json:"method,omitempty"`      // pointer so we can distinguish "not set" from 0
	School     *int    `json:"school,omitempty"`      // pointer so we can distinguish "not set" from 0
	TimeFormat string  `json:"time_format,omitempty"` // "12h" or "24h"
	Prayers    string  `json:"prayers,omitempty"`     // comma-separated list
	CacheDir   string  `json:"cache_dir,omitempty"`
	Theme      string  `json:"theme,omitempty"` // "light", "dark" or "system"

	// Feature flags.
	PhotoProofs bool `json:"photo_proofs,omitempty"`
	AdsEnabled  bool `json:"ads_enabled,omitempty"`

	// DatabaseURL and UserID switch check-offs from guest mode to the shared
	// store.
	DatabaseURL string `json:"database_url,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := DefaultMethod
	school := -1
	return Config{
		Method:     &method,
		School:     &school,
		TimeFormat: "24h",
		Theme:      "system",
	}
}

// DefaultMethod is the ISNA calculation method.
const DefaultMethod = 2

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// key binds one config key to its field. set validates before assigning;
// get returns "" for an unset field.
type key struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

var keys = map[string]key{
	"city":        textKey(func(c *Config) *string { return &c.City }),
	"country":     textKey(func(c *Config) *string { return &c.Country }),
	"latitude":    coordKey("latitude", 90, func(c *Config) *float64 { return &c.Latitude }),
	"longitude":   coordKey("longitude", 180, func(c *Config) *float64 { return &c.Longitude }),
	"method":      intKey("method", func(v int) bool { return v >= 0 && v <= 23 }, "must be between 0 and 23", func(c *Config) **int { return &c.Method }),
	"school":      intKey("school", func(v int) bool { return v == 0 || v == 1 }, "must be 0 (Shafi) or 1 (Hanafi)", func(c *Config) **int { return &c.School }),
	"time_format": choiceKey("time_format", []string{"12h", "24h"}, func(c *Config) *string { return &c.TimeFormat }),
	"prayers": {
		get: func(c *Config) string { return c.Prayers },
		set: func(c *Config, v string) error {
			for _, n := range strings.Split(v, ",") {
				if n = strings.TrimSpace(n); !validPrayerNames[n] {
					return fmt.Errorf("invalid prayer name %q in prayers list", n)
				}
			}
			c.Prayers = v
			return nil
		},
	},
	"cache_dir":    textKey(func(c *Config) *string { return &c.CacheDir }),
	"theme":        choiceKey("theme", []string{"light", "dark", "system"}, func(c *Config) *string { return &c.Theme }),
	"photo_proofs": boolKey("photo_proofs", func(c *Config) *bool { return &c.PhotoProofs }),
	"ads_enabled":  boolKey("ads_enabled", func(c *Config) *bool { return &c.AdsEnabled }),
	"database_url": textKey(func(c *Config) *string { return &c.DatabaseURL }),
	"user_id": {
		get: func(c *Config) string { return c.UserID },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, err := uuid.Parse(v); err != nil {
					return fmt.Errorf("invalid user_id %q: must be a UUID", v)
				}
			}
			c.UserID = v
			return nil
		},
	},
}

func textKey(field func(*Config) *string) key {
	return key{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func choiceKey(name string, choices []string, field func(*Config) *string) key {
	return key{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if !slices.Contains(choices, v) {
				return fmt.Errorf("invalid %s %q: must be one of %s", name, v, strings.Join(choices, ", "))
			}
			*field(c) = v
			return nil
		},
	}
}

// coordKey is a degree value within [-limit, limit]. Zero reads as unset.
func coordKey(name string, limit float64, field func(*Config) *float64) key {
	return key{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be a number", name, v)
			}
			if f < -limit || f > limit {
				return fmt.Errorf("invalid %s %q: must be between %v and %v", name, v, -limit, limit)
			}
			*field(c) = f
			return nil
		},
	}
}

// intKey is an optional integer; nil means unset so 0 stays a valid value.
func intKey(name string, valid func(int) bool, rule string, field func(*Config) **int) key {
	return key{
		get: func(c *Config) string {
			if *field(c) == nil {
				return ""
			}
			return strconv.Itoa(**field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be an integer", name, v)
			}
			if !valid(n) {
				return fmt.Errorf("invalid %s %q: %s", name, v, rule)
			}
			*field(c) = &n
			return nil
		},
	}
}

func boolKey(name string, field func(*Config) *bool) key {
	return key{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be true or false", name, v)
			}
			*field(c) = b
			return nil
		},
	}
}

// Set parses value into the field named by name.
func (c *Config) Set(name, value string) error {
	k, ok := keys[name]
	if !ok {
		return fmt.Errorf("unknown config key %q; valid keys: %s", name, strings.Join(ValidKeys, ", "))
	}
	return k.set(c, value)
}

// Get returns the string form of a config key.
func (c *Config) Get(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", name)
	}
	return k.get(c), nil
}

// validPrayerNames are the event names the provider returns.
var validPrayerNames = map[string]bool{
	"Fajr": true, "Sunrise": true, "Dhuhr": true, "Asr": true,
	"Sunset": true, "Maghrib": true, "Isha": true,
	"Imsak": true, "Midnight": true, "Firstthird": true, "Lastthird": true,
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// Coordinate returns the configured position, or nil when none is set.
func (c *Config) Coordinate() *model.Coordinate {
	if c.Latitude == 0 && c.Longitude == 0 {
		return nil
	}
	return &model.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Use12h reports whether times should be shown on a 12-hour clock.
func (c *Config) Use12h() bool {
	return c.TimeFormat == "12h"
}

// SignedIn reports whether check-offs go to the shared store.
func (c *Config) SignedIn() bool {
	return c.DatabaseURL != "" && c.UserID != ""
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}
