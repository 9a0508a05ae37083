package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
)

// openTestDB connects to TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping())
	require.NoError(t, RunMigrations(db))
	_, err = db.Exec("DELETE FROM geocode_cache")
	require.NoError(t, err)
	return db
}

func TestPostcodeRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := NewPgStore(db, time.Hour)
	ctx := context.Background()

	_, ok, err := s.GetPostcode(ctx, "CF626BD")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SavePostcode(ctx, geocode.Coordinates{Postcode: "CF626BD", Latitude: 51.405, Longitude: -3.268}))
	require.NoError(t, s.SavePostcode(ctx, geocode.Coordinates{Postcode: "CF626BD", Latitude: 51.406, Longitude: -3.269}))

	got, ok, err := s.GetPostcode(ctx, "CF626BD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 51.406, got.Latitude)
	assert.Equal(t, -3.269, got.Longitude)
}

func TestPostcodeExpiry(t *testing.T) {
	db := openTestDB(t)
	s := NewPgStore(db, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.SavePostcode(ctx, geocode.Coordinates{Postcode: "CF101AA", Latitude: 51.48, Longitude: -3.18}))

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok, err := s.GetPostcode(ctx, "CF101AA")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewPgStoreDefaultsTTL(t *testing.T) {
	s := NewPgStore(&sql.DB{}, 0)
	assert.Equal(t, DefaultGeocodeTTL, s.ttl)
}
