package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "API_BASE_URL", "SITE_ROOT", "API_TOKEN", "REDIS_ADDR", "SESSION_TTL",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASS", "POSTCODES_URL", "GEOCODE_TTL", "LOG_LEVEL", "SESSION_COOKIE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://www.bellavistanursinghomes.com", cfg.SiteRoot)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.GeocodeTTL)
	assert.Equal(t, "bv_session", cfg.SessionCookie)
	assert.Equal(t, "postgres://bellavista:@localhost:5432/bellavista?sslmode=disable", cfg.PostgresURL())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_BASE_URL=https://api.example.com/\nSESSION_TTL=45m\nDB_HOST=none\n"), 0o600))
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Empty(t, cfg.PostgresURL())
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "SESSION_TTL")
}
