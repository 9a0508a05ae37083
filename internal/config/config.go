package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

type Config struct {
	Port          string
	APIBaseURL    string
	SiteRoot      string
	APIToken      string
	RedisAddr     string
	SessionTTL    time.Duration
	DBHost        string
	DBPort        string
	DBName        string
	DBUser        string
	DBPass        string
	PostcodesURL  string
	GeocodeTTL    time.Duration
	LogLevel      string
	SessionCookie string
}

func envOrDefault(key, d string) string {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	return v
}

func durationOrDefault(key string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return d, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// Load reads the environment, after loading .env files when present.
// Variables already set win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := gotenv.Load(f); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	cfg := Config{
		Port:          envOrDefault("PORT", "8080"),
		APIBaseURL:    strings.TrimRight(envOrDefault("API_BASE_URL", "http://localhost:5000/api"), "/"),
		SiteRoot:      strings.TrimRight(envOrDefault("SITE_ROOT", "https://www.bellavistanursinghomes.com"), "/"),
		APIToken:      os.Getenv("API_TOKEN"),
		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		DBHost:        envOrDefault("DB_HOST", "localhost"),
		DBPort:        envOrDefault("DB_PORT", "5432"),
		DBName:        envOrDefault("DB_NAME", "bellavista"),
		DBUser:        envOrDefault("DB_USER", "bellavista"),
		DBPass:        os.Getenv("DB_PASS"),
		PostcodesURL:  envOrDefault("POSTCODES_URL", "https://api.postcodes.io"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		SessionCookie: envOrDefault("SESSION_COOKIE", "bv_session"),
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeTTL, err = durationOrDefault("GEOCODE_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PostgresURL builds the lib/pq connection string. Empty when DB_HOST is "none".
func (c Config) PostgresURL() string {
	if c.DBHost == "" || c.DBHost == "none" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}
