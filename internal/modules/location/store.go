// README: Location settings store backed by Postgres, with a redis last-fix cache.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const lastFixKey = "pipdash:location:last"

// Store persists the single location-settings row. The dashboard is
// single-user, so there is exactly one row (id = 1) and last-writer-wins.
type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

// LoadSettings reads the persisted settings, returning zero-value defaults
// when no row exists yet.
func (st *Store) LoadSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := st.db.QueryRow(ctx,
		`SELECT enabled, latitude, longitude, COALESCE(name, ''), frequency_minutes
		 FROM location_settings WHERE id = 1`,
	).Scan(&s.Enabled, &s.Lat, &s.Lng, &s.Name, &s.FrequencyMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{FrequencyMinutes: minFrequencyMinutes}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load location settings: %w", err)
	}
	s.FrequencyMinutes = clampFrequency(s.FrequencyMinutes)
	return s, nil
}

// SaveSettings upserts the settings row.
func (st *Store) SaveSettings(ctx context.Context, s Settings) error {
	_, err := st.db.Exec(ctx,
		`INSERT INTO location_settings (id, enabled, latitude, longitude, name, frequency_minutes, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			name = EXCLUDED.name,
			frequency_minutes = EXCLUDED.frequency_minutes,
			updated_at = now()`,
		s.Enabled, s.Lat, s.Lng, s.Name, clampFrequency(s.FrequencyMinutes))
	if err != nil {
		return fmt.Errorf("save location settings: %w", err)
	}
	return nil
}

// SaveFix records the latest fix into the settings row and the redis cache.
// This is the PersistFunc wired into the service.
func (st *Store) SaveFix(ctx context.Context, lat, lng float64, name string) error {
	_, err := st.db.Exec(ctx,
		`UPDATE location_settings
		 SET latitude = $1, longitude = $2, name = NULLIF($3, ''), updated_at = now()
		 WHERE id = 1`,
		lat, lng, name)
	if err != nil {
		return fmt.Errorf("save fix: %w", err)
	}

	sample := Sample{Lat: lat, Lng: lng, Name: name, TsMs: time.Now().UnixMilli()}
	if raw, err := json.Marshal(sample); err == nil {
		// Cache failures are non-fatal; the durable write already landed.
		st.redis.Set(ctx, lastFixKey, raw, 0)
	}
	return nil
}

// LastFix returns the cached most-recent fix, or nil when none is cached.
func (st *Store) LastFix(ctx context.Context) (*Sample, error) {
	raw, err := st.redis.Get(ctx, lastFixKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last fix: %w", err)
	}
	var s Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("last fix: decode: %w", err)
	}
	return &s, nil
}
