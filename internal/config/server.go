package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageLocal      = "local"
	StorageSpaces     = "spaces"
	StorageCloudinary = "cloudinary"
)

// ServerConfig holds the settings for `namaz serve`, read from the
// environment.
type ServerConfig struct {
	Addr           string
	DatabaseURL    string
	JWTSecret      string
	RedisURL       string
	AllowedOrigins []string
	LogLevel       string
	Pretty         bool

	CalcMethod  int
	PhotoProofs bool
	// MaxLocations caps the coordinates /api/timings keeps services for.
	MaxLocations int

	Storage StorageConfig

	// Athan announcer. Disabled when MQTTBroker is empty.
	MQTTBroker  string
	MQTTTopic   string
	AnnounceLat float64
	AnnounceLng float64
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Backend string

	LocalDir     string
	LocalBaseURL string

	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// AnnouncerEnabled reports whether an MQTT broker is configured.
func (c *ServerConfig) AnnouncerEnabled() bool {
	return c.MQTTBroker != ""
}

// LoadServer reads the server settings. Values from envFile (if it exists)
// never override variables already set in the process environment.
func LoadServer(envFile string) (*ServerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &ServerConfig{
		Addr:           getEnv("NAMAZ_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Pretty:         getEnv("APP_ENV", "") != "production",
		MQTTBroker:     getEnv("MQTT_BROKER", ""),
		MQTTTopic:      getEnv("MQTT_TOPIC", "namaz"),
		Storage: StorageConfig{
			Backend:             strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			LocalDir:            getEnv("STORAGE_DIR", "uploads"),
			LocalBaseURL:        getEnv("STORAGE_BASE_URL", "/uploads"),
			SpacesEndpoint:      getEnv("SPACES_ENDPOINT", ""),
			SpacesRegion:        getEnv("SPACES_REGION", ""),
			SpacesBucket:        getEnv("SPACES_BUCKET", ""),
			SpacesCDNURL:        getEnv("SPACES_CDN_URL", ""),
			SpacesAccessKey:     getEnv("SPACES_ACCESS_KEY", ""),
			SpacesSecretKey:     getEnv("SPACES_SECRET_KEY", ""),
			CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	var err error
	if cfg.CalcMethod, err = envInt("CALC_METHOD", DefaultMethod); err != nil {
		return nil, err
	}
	if cfg.PhotoProofs, err = envBool("FEATURE_PHOTO_PROOFS", false); err != nil {
		return nil, err
	}
	if cfg.MaxLocations, err = envInt("MAX_LOCATIONS", 0); err != nil {
		return nil, err
	}
	if cfg.MaxLocations < 0 {
		return nil, fmt.Errorf("MAX_LOCATIONS must not be negative, got %d", cfg.MaxLocations)
	}
	if cfg.AnnounceLat, err = envFloat("ANNOUNCE_LAT", 0); err != nil {
		return nil, err
	}
	if cfg.AnnounceLng, err = envFloat("ANNOUNCE_LNG", 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageSpaces:
		if c.Storage.SpacesEndpoint == "" || c.Storage.SpacesBucket == "" || c.Storage.SpacesAccessKey == "" || c.Storage.SpacesSecretKey == "" {
			missing = append(missing, "SPACES_ENDPOINT/SPACES_BUCKET/SPACES_ACCESS_KEY/SPACES_SECRET_KEY")
		}
	case StorageCloudinary:
		if c.Storage.CloudinaryName == "" || c.Storage.CloudinaryAPIKey == "" || c.Storage.CloudinaryAPISecret == "" {
			missing = append(missing, "CLOUDINARY_CLOUD_NAME/CLOUDINARY_API_KEY/CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: must be local, spaces or cloudinary", c.Storage.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, s)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	s := getEnv(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := getEnv(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number", key, s)
	}
	return v, nil
}

func parseOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
