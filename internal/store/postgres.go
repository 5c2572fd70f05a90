package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/tripheatmap/neighborhood-cli/internal/db"
	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const neighborhoodColumns = `
	id, geoid, name, slug, city, county, state, country, continent,
	population, area_sq_km,
	ST_AsBinary(boundary::geometry), ST_AsBinary(centroid::geometry),
	created_at, updated_at`

// CreateNeighborhood inserts a new boundary record and fills in the assigned
// id and timestamps.
func (s *PostgresStore) CreateNeighborhood(ctx context.Context, n *model.Neighborhood) error {
	boundary, err := geometry.EncodeMultiPolygon(n.Boundary)
	if err != nil {
		return eris.Wrap(err, "store: encode boundary")
	}
	centroid, err := geometry.EncodePoint(n.Centroid)
	if err != nil {
		return eris.Wrap(err, "store: encode centroid")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO neighborhoods
			(geoid, name, slug, city, county, state, country, continent,
			 population, area_sq_km, boundary, centroid)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			 ST_GeomFromEWKB($11)::geography, ST_GeomFromEWKB($12)::geography)
		RETURNING id, created_at, updated_at`,
		n.GeoID, n.Name, n.Slug, n.City, n.County, n.State, n.Country,
		n.Continent, n.Population, n.AreaSqKm, boundary, centroid,
	)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return eris.Wrapf(err, "store: create neighborhood %s", n.GeoID)
	}
	return nil
}

// NeighborhoodExists reports whether a boundary with this geoid was already
// imported.
func (s *PostgresStore) NeighborhoodExists(ctx context.Context, geoid string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM neighborhoods WHERE geoid = $1)`, geoid)
	if err := row.Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "store: check geoid %s", geoid)
	}
	return exists, nil
}

// SlugExists reports whether a slug is already taken.
func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM neighborhoods WHERE slug = $1)`, slug)
	if err := row.Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "store: check slug %s", slug)
	}
	return exists, nil
}

// ListNeighborhoodsByCity returns every neighborhood for a city, ordered by
// name.
func (s *PostgresStore) ListNeighborhoodsByCity(ctx context.Context, city string) ([]model.Neighborhood, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+neighborhoodColumns+`
		FROM neighborhoods
		WHERE city = $1
		ORDER BY name`, city)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list neighborhoods for %s", city)
	}
	defer rows.Close()

	var out []model.Neighborhood
	for rows.Next() {
		n, err := scanNeighborhood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: list neighborhoods for %s", city)
	}
	return out, nil
}

// ListWithStatsByCity returns every neighborhood for a city joined with its
// amenity aggregate. Stat is nil for neighborhoods never aggregated.
func (s *PostgresStore) ListWithStatsByCity(ctx context.Context, city string) ([]NeighborhoodWithStat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			n.id, n.geoid, n.name, n.slug, n.city, n.county, n.state,
			n.country, n.continent, n.population, n.area_sq_km,
			ST_AsBinary(n.boundary::geometry), ST_AsBinary(n.centroid::geometry),
			n.created_at, n.updated_at,
			ps.restaurant_count, ps.cafe_count, ps.bar_count,
			ps.total_amenities,
			ps.restaurant_density, ps.cafe_density, ps.bar_density,
			ps.vibrancy_index, ps.last_updated
		FROM neighborhoods n
		LEFT JOIN place_stats ps ON ps.neighborhood_id = n.id
		WHERE n.city = $1
		ORDER BY n.name`, city)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list stats for %s", city)
	}
	defer rows.Close()

	var out []NeighborhoodWithStat
	for rows.Next() {
		var (
			n         model.Neighborhood
			boundary  []byte
			centroid  []byte
			restCount *int
			cafeCount *int
			barCount  *int
			total     *int
			restDens  *float64
			cafeDens  *float64
			barDens   *float64
			vibrancy  *float64
			updated   *time.Time
		)
		err := rows.Scan(
			&n.ID, &n.GeoID, &n.Name, &n.Slug, &n.City, &n.County, &n.State,
			&n.Country, &n.Continent, &n.Population, &n.AreaSqKm,
			&boundary, &centroid, &n.CreatedAt, &n.UpdatedAt,
			&restCount, &cafeCount, &barCount, &total,
			&restDens, &cafeDens, &barDens, &vibrancy, &updated,
		)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan neighborhood with stat")
		}
		if n.Boundary, err = geometry.DecodeMultiPolygon(boundary); err != nil {
			return nil, eris.Wrapf(err, "store: decode boundary for %s", n.GeoID)
		}
		if n.Centroid, err = geometry.DecodePoint(centroid); err != nil {
			return nil, eris.Wrapf(err, "store: decode centroid for %s", n.GeoID)
		}

		item := NeighborhoodWithStat{Neighborhood: n}
		if restCount != nil {
			item.Stat = &model.PlaceStat{
				NeighborhoodID:    n.ID,
				RestaurantCount:   *restCount,
				CafeCount:         *cafeCount,
				BarCount:          *barCount,
				TotalAmenities:    *total,
				RestaurantDensity: *restDens,
				CafeDensity:       *cafeDens,
				BarDensity:        *barDens,
				VibrancyIndex:     *vibrancy,
				LastUpdated:       *updated,
			}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: list stats for %s", city)
	}
	return out, nil
}

// LastImportTime returns the most recent boundary import or aggregation time
// for a city, or nil when the city has never been imported. The freshness
// gate in the importer compares this against the staleness window.
func (s *PostgresStore) LastImportTime(ctx context.Context, city string) (*time.Time, error) {
	var latest *time.Time
	row := s.pool.QueryRow(ctx, `
		SELECT GREATEST(
			(SELECT MAX(updated_at) FROM neighborhoods WHERE city = $1),
			(SELECT MAX(ps.last_updated)
			 FROM place_stats ps
			 JOIN neighborhoods n ON n.id = ps.neighborhood_id
			 WHERE n.city = $1)
		)`, city)
	if err := row.Scan(&latest); err != nil {
		return nil, eris.Wrapf(err, "store: last import time for %s", city)
	}
	return latest, nil
}

// UpdatePopulationByGeoID sets the population for a geoid. Returns false when
// no matching neighborhood exists.
func (s *PostgresStore) UpdatePopulationByGeoID(ctx context.Context, geoid string, population int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE neighborhoods
		SET population = $2, updated_at = now()
		WHERE geoid = $1`, geoid, population)
	if err != nil {
		return false, eris.Wrapf(err, "store: update population for %s", geoid)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateDescription stores a generated description.
func (s *PostgresStore) UpdateDescription(ctx context.Context, neighborhoodID int64, description string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE neighborhoods
		SET description = $2, updated_at = now()
		WHERE id = $1`, neighborhoodID, description)
	if err != nil {
		return eris.Wrapf(err, "store: update description for %d", neighborhoodID)
	}
	return nil
}

// ListMissingDescription returns neighborhoods in a city without a generated
// description, ordered by name.
func (s *PostgresStore) ListMissingDescription(ctx context.Context, city string) ([]model.Neighborhood, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+neighborhoodColumns+`
		FROM neighborhoods
		WHERE city = $1 AND (description IS NULL OR description = '')
		ORDER BY name`, city)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list missing descriptions for %s", city)
	}
	defer rows.Close()

	var out []model.Neighborhood
	for rows.Next() {
		n, err := scanNeighborhood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: list missing descriptions for %s", city)
	}
	return out, nil
}

// ReplacePlaces atomically swaps the place cache for a neighborhood: delete
// everything, then COPY the new rows in the same transaction. Partial updates
// are never visible.
func (s *PostgresStore) ReplacePlaces(ctx context.Context, neighborhoodID int64, places []model.Place) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "store: replace places: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM places WHERE neighborhood_id = $1`, neighborhoodID); err != nil {
		return 0, eris.Wrapf(err, "store: replace places: delete for %d", neighborhoodID)
	}

	rows := make([][]any, len(places))
	for i, p := range places {
		tags := p.Tags
		if tags == nil {
			tags = []byte("{}")
		}
		rows[i] = []any{neighborhoodID, p.Name, string(p.Category), p.Lat, p.Lon, p.Address, tags}
	}

	n, err := db.CopyFromTx(ctx, tx, "places",
		[]string{"neighborhood_id", "name", "category", "lat", "lon", "address", "tags"},
		rows)
	if err != nil {
		return 0, eris.Wrapf(err, "store: replace places: copy for %d", neighborhoodID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "store: replace places: commit for %d", neighborhoodID)
	}
	return n, nil
}

// TopPlaces returns up to three places per neighborhood, ordered restaurant
// then bar then cafe, alphabetical within each category. Used by the ranking
// engine for card highlights.
func (s *PostgresStore) TopPlaces(ctx context.Context, neighborhoodIDs []int64) (map[int64][]model.Place, error) {
	out := make(map[int64][]model.Place, len(neighborhoodIDs))
	if len(neighborhoodIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, neighborhood_id, name, category, lat, lon, address, tags
		FROM (
			SELECT p.*,
				ROW_NUMBER() OVER (
					PARTITION BY p.neighborhood_id
					ORDER BY
						CASE p.category
							WHEN 'restaurant' THEN 0
							WHEN 'bar' THEN 1
							WHEN 'cafe' THEN 2
							ELSE 99
						END,
						LOWER(p.name)
				) AS rn
			FROM places p
			WHERE p.neighborhood_id = ANY($1)
		) ranked
		WHERE rn <= 3
		ORDER BY neighborhood_id, rn`, neighborhoodIDs)
	if err != nil {
		return nil, eris.Wrap(err, "store: top places")
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.NeighborhoodID, &p.Name, &p.Category,
			&p.Lat, &p.Lon, &p.Address, &p.Tags); err != nil {
			return nil, eris.Wrap(err, "store: scan top place")
		}
		out[p.NeighborhoodID] = append(out[p.NeighborhoodID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: top places")
	}
	return out, nil
}

// UpsertStat writes the one-to-one aggregate row for a neighborhood.
func (s *PostgresStore) UpsertStat(ctx context.Context, stat *model.PlaceStat) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO place_stats
			(neighborhood_id, restaurant_count, cafe_count, bar_count,
			 total_amenities, restaurant_density, cafe_density, bar_density,
			 vibrancy_index, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (neighborhood_id) DO UPDATE SET
			restaurant_count   = EXCLUDED.restaurant_count,
			cafe_count         = EXCLUDED.cafe_count,
			bar_count          = EXCLUDED.bar_count,
			total_amenities    = EXCLUDED.total_amenities,
			restaurant_density = EXCLUDED.restaurant_density,
			cafe_density       = EXCLUDED.cafe_density,
			bar_density        = EXCLUDED.bar_density,
			vibrancy_index     = EXCLUDED.vibrancy_index,
			last_updated       = EXCLUDED.last_updated`,
		stat.NeighborhoodID, stat.RestaurantCount, stat.CafeCount, stat.BarCount,
		stat.TotalAmenities, stat.RestaurantDensity, stat.CafeDensity,
		stat.BarDensity, stat.VibrancyIndex, stat.LastUpdated,
	)
	if err != nil {
		return eris.Wrapf(err, "store: upsert stat for %d", stat.NeighborhoodID)
	}
	return nil
}

var statColumns = []string{
	"neighborhood_id", "restaurant_count", "cafe_count", "bar_count",
	"total_amenities", "restaurant_density", "cafe_density", "bar_density",
	"vibrancy_index", "last_updated",
}

// UpsertStats writes a batch of aggregate rows in one round trip. Used by the
// city-wide aggregation so a few hundred tracts do not turn into a few hundred
// statements.
func (s *PostgresStore) UpsertStats(ctx context.Context, stats []model.PlaceStat) (int64, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []any{
			st.NeighborhoodID, st.RestaurantCount, st.CafeCount, st.BarCount,
			st.TotalAmenities, st.RestaurantDensity, st.CafeDensity,
			st.BarDensity, st.VibrancyIndex, st.LastUpdated,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "place_stats",
		Columns:      statColumns,
		ConflictKeys: []string{"neighborhood_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "store: bulk upsert stats")
	}
	return n, nil
}

func scanNeighborhood(rows pgx.Rows) (model.Neighborhood, error) {
	var (
		n        model.Neighborhood
		boundary []byte
		centroid []byte
	)
	err := rows.Scan(
		&n.ID, &n.GeoID, &n.Name, &n.Slug, &n.City, &n.County, &n.State,
		&n.Country, &n.Continent, &n.Population, &n.AreaSqKm,
		&boundary, &centroid, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return model.Neighborhood{}, eris.Wrap(err, "store: scan neighborhood")
	}
	if n.Boundary, err = geometry.DecodeMultiPolygon(boundary); err != nil {
		return model.Neighborhood{}, eris.Wrapf(err, "store: decode boundary for %s", n.GeoID)
	}
	if n.Centroid, err = geometry.DecodePoint(centroid); err != nil {
		return model.Neighborhood{}, eris.Wrapf(err, "store: decode centroid for %s", n.GeoID)
	}
	return n, nil
}
