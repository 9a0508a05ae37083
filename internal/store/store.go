package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
)

// DefaultGeocodeTTL is how long a postcode lookup is reused.
const DefaultGeocodeTTL = 30 * 24 * time.Hour

type PgStore struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

func NewPgStore(db *sql.DB, ttl time.Duration) *PgStore {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	return &PgStore{db: sqlx.NewDb(db, "postgres"), ttl: ttl, now: time.Now}
}

func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS geocode_cache(
  postcode TEXT PRIMARY KEY,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT now(),
  expires_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires ON geocode_cache(expires_at);
`
	_, err := db.Exec(initSQL)
	return err
}

type postcodeRow struct {
	Postcode  string    `db:"postcode"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	ExpiresAt time.Time `db:"expires_at"`
}

// GetPostcode returns a cached lookup that has not expired.
func (p *PgStore) GetPostcode(ctx context.Context, postcode string) (geocode.Coordinates, bool, error) {
	var row postcodeRow
	err := p.db.GetContext(ctx, &row, `
SELECT postcode, latitude, longitude, expires_at
FROM geocode_cache
WHERE postcode = $1 AND expires_at > $2
`, postcode, p.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return geocode.Coordinates{}, false, nil
	}
	if err != nil {
		return geocode.Coordinates{}, false, err
	}
	return geocode.Coordinates{Postcode: row.Postcode, Latitude: row.Latitude, Longitude: row.Longitude}, true, nil
}

// SavePostcode upserts a lookup and restarts its expiry.
func (p *PgStore) SavePostcode(ctx context.Context, c geocode.Coordinates) error {
	now := p.now().UTC()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO geocode_cache (postcode, latitude, longitude, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (postcode) DO UPDATE SET
 latitude=EXCLUDED.latitude,
 longitude=EXCLUDED.longitude,
 created_at=EXCLUDED.created_at,
 expires_at=EXCLUDED.expires_at;
`, c.Postcode, c.Latitude, c.Longitude, now, now.Add(p.ttl))
	return err
}

// PurgeExpired deletes stale lookups and reports how many were removed.
func (p *PgStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, "DELETE FROM geocode_cache WHERE expires_at <= $1", p.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ping checks the connection.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
