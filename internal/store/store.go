// Package store persists neighborhoods, the place cache, and amenity
// aggregates in Postgres/PostGIS.
package store

import (
	"context"
	"time"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// NeighborhoodWithStat joins a neighborhood with its aggregate; Stat is nil
// when the neighborhood has never been aggregated.
type NeighborhoodWithStat struct {
	Neighborhood model.Neighborhood
	Stat         *model.PlaceStat
}

// Store defines the persistence operations of the pipeline.
type Store interface {
	// Neighborhoods (create-only from the importer's perspective)
	CreateNeighborhood(ctx context.Context, n *model.Neighborhood) error
	NeighborhoodExists(ctx context.Context, geoid string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListNeighborhoodsByCity(ctx context.Context, city string) ([]model.Neighborhood, error)
	ListWithStatsByCity(ctx context.Context, city string) ([]NeighborhoodWithStat, error)
	LastImportTime(ctx context.Context, city string) (*time.Time, error)
	UpdatePopulationByGeoID(ctx context.Context, geoid string, population int) (bool, error)
	UpdateDescription(ctx context.Context, neighborhoodID int64, description string) error
	ListMissingDescription(ctx context.Context, city string) ([]model.Neighborhood, error)

	// Place cache (full-replace, never incremental)
	ReplacePlaces(ctx context.Context, neighborhoodID int64, places []model.Place) (int64, error)
	TopPlaces(ctx context.Context, neighborhoodIDs []int64) (map[int64][]model.Place, error)

	// Aggregates
	UpsertStat(ctx context.Context, stat *model.PlaceStat) error
	UpsertStats(ctx context.Context, stats []model.PlaceStat) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
}
