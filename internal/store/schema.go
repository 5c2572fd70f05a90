package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// migrations run in order; each statement is idempotent so migrate can be
// re-applied safely.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS neighborhoods (
		id           BIGSERIAL PRIMARY KEY,
		geoid        TEXT NOT NULL,
		name         TEXT NOT NULL,
		slug         TEXT NOT NULL,
		city         TEXT NOT NULL,
		county       TEXT,
		state        TEXT,
		country      TEXT,
		continent    TEXT,
		population   INTEGER,
		area_sq_km   DOUBLE PRECISION NOT NULL DEFAULT 0,
		boundary     geography(MultiPolygon, 4326) NOT NULL,
		centroid     geography(Point, 4326) NOT NULL,
		description  TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS neighborhoods_geoid_idx ON neighborhoods (geoid)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS neighborhoods_slug_idx ON neighborhoods (slug)`,
	`CREATE INDEX IF NOT EXISTS neighborhoods_city_idx ON neighborhoods (city)`,
	`CREATE INDEX IF NOT EXISTS neighborhoods_boundary_idx ON neighborhoods USING GIST (boundary)`,
	`CREATE INDEX IF NOT EXISTS neighborhoods_centroid_idx ON neighborhoods USING GIST (centroid)`,

	`CREATE TABLE IF NOT EXISTS places (
		id              BIGSERIAL PRIMARY KEY,
		neighborhood_id BIGINT NOT NULL REFERENCES neighborhoods(id) ON DELETE CASCADE,
		name            TEXT NOT NULL,
		category        TEXT NOT NULL,
		lat             DOUBLE PRECISION NOT NULL,
		lon             DOUBLE PRECISION NOT NULL,
		address         TEXT,
		tags            JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS places_neighborhood_idx ON places (neighborhood_id)`,
	`CREATE INDEX IF NOT EXISTS places_category_idx ON places (category)`,

	`CREATE TABLE IF NOT EXISTS place_stats (
		neighborhood_id    BIGINT PRIMARY KEY REFERENCES neighborhoods(id) ON DELETE CASCADE,
		restaurant_count   INTEGER NOT NULL DEFAULT 0,
		cafe_count         INTEGER NOT NULL DEFAULT 0,
		bar_count          INTEGER NOT NULL DEFAULT 0,
		total_amenities    INTEGER NOT NULL DEFAULT 0,
		restaurant_density DOUBLE PRECISION NOT NULL DEFAULT 0,
		cafe_density       DOUBLE PRECISION NOT NULL DEFAULT 0,
		bar_density        DOUBLE PRECISION NOT NULL DEFAULT 0,
		vibrancy_index     NUMERIC(4,2) NOT NULL DEFAULT 0,
		last_updated       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.migrate"))

	for i, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "store: migration %d", i)
		}
	}

	log.Info("schema migrated", zap.Int("statements", len(migrations)))
	return nil
}
