package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tripheatmap/neighborhood-cli/internal/amenity"
	"github.com/tripheatmap/neighborhood-cli/internal/boundary"
	"github.com/tripheatmap/neighborhood-cli/internal/boundary/sources"
	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/db"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

// openStore connects to Postgres and returns the store plus a closer.
func openStore(ctx context.Context) (store.Store, func(), error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, nil, eris.New("database url is required (TRIPHEATMAP_STORE_DATABASE_URL)")
	}

	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func loadRegistry() (*cities.Registry, error) {
	return cities.Load(cfg.Cities.Path)
}

func buildImporter(st store.Store, registry *cities.Registry) *boundary.Importer {
	timeout := time.Duration(cfg.Import.TimeoutSecs) * time.Second
	censusTimeout := time.Duration(cfg.Census.TimeoutSecs) * time.Second

	srcs := boundary.Sources{
		Portal:    sources.NewCityPortal(timeout, cfg.Overpass.MaxRetries),
		Shapefile: sources.NewShapefile(cfg.Import.ShapefileDir),
		Census:    sources.NewTIGERWeb(cfg.Census.TigerURL, censusTimeout, cfg.Overpass.MaxRetries),
	}
	return boundary.NewImporter(st, registry, srcs, cfg.Import.Staleness())
}

func buildAggregator(st store.Store) *amenity.Aggregator {
	provider := amenity.NewOverpassClient(
		cfg.Overpass.URL,
		time.Duration(cfg.Overpass.TimeoutSecs)*time.Second,
		cfg.Overpass.RequestsPerSec,
		cfg.Overpass.MaxRetries,
	)
	return amenity.NewAggregator(st, provider, cfg.Overpass.MaxConcurrency)
}
