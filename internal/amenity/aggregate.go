package amenity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
	"github.com/tripheatmap/neighborhood-cli/internal/vibrancy"
)

// Aggregator refreshes the place cache and amenity stats per neighborhood.
type Aggregator struct {
	store       store.Store
	provider    Provider
	concurrency int
	log         *zap.Logger
}

// NewAggregator wires the aggregator. concurrency bounds how many
// neighborhoods are processed at once; provider-level rate limiting still
// serializes the actual API calls.
func NewAggregator(st store.Store, provider Provider, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		store:       st,
		provider:    provider,
		concurrency: concurrency,
		log:         zap.L().With(zap.String("component", "amenity.aggregator")),
	}
}

// Result summarizes a city-wide aggregation run.
type Result struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []string
}

// AggregateCity refreshes stats for every neighborhood in a city. A failing
// neighborhood is recorded and the batch continues.
func (a *Aggregator) AggregateCity(ctx context.Context, city string) (*Result, error) {
	neighborhoods, err := a.store.ListNeighborhoodsByCity(ctx, city)
	if err != nil {
		return nil, err
	}

	result := &Result{Total: len(neighborhoods)}
	var (
		mu    sync.Mutex
		stats []model.PlaceStat
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, n := range neighborhoods {
		g.Go(func() error {
			stat, err := a.computeStat(ctx, n)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", n.Name, err))
				a.log.Warn("aggregation failed",
					zap.String("city", city),
					zap.String("neighborhood", n.Name),
					zap.Error(err))
				return nil
			}
			result.Succeeded++
			stats = append(stats, *stat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	// Stats land in one batch so a partially failed run still publishes every
	// neighborhood that succeeded.
	if _, err := a.store.UpsertStats(ctx, stats); err != nil {
		return result, err
	}

	a.log.Info("city aggregation finished",
		zap.String("city", city),
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

// AggregateNeighborhood fetches, classifies, and persists places for one
// neighborhood, then recomputes and writes its stat row. The place swap is
// atomic; a provider failure leaves the previous cache untouched.
func (a *Aggregator) AggregateNeighborhood(ctx context.Context, n model.Neighborhood) (*model.PlaceStat, error) {
	stat, err := a.computeStat(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := a.store.UpsertStat(ctx, stat); err != nil {
		return nil, err
	}
	return stat, nil
}

// computeStat refreshes the place cache for a neighborhood and derives its
// aggregate row without persisting it.
func (a *Aggregator) computeStat(ctx context.Context, n model.Neighborhood) (*model.PlaceStat, error) {
	bbox := geometry.BoundingBox(n.Boundary)

	raw, err := a.provider.FetchPlaces(ctx, bbox)
	if err != nil {
		return nil, err
	}

	places, counts := classifyAll(n.ID, raw)

	if _, err := a.store.ReplacePlaces(ctx, n.ID, places); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	stat := &model.PlaceStat{
		NeighborhoodID:    n.ID,
		RestaurantCount:   counts[model.CategoryRestaurant],
		CafeCount:         counts[model.CategoryCafe],
		BarCount:          counts[model.CategoryBar],
		TotalAmenities:    total,
		RestaurantDensity: density(counts[model.CategoryRestaurant], n.AreaSqKm),
		CafeDensity:       density(counts[model.CategoryCafe], n.AreaSqKm),
		BarDensity:        density(counts[model.CategoryBar], n.AreaSqKm),
		VibrancyIndex:     vibrancy.Score(counts, n.AreaSqKm),
		LastUpdated:       time.Now().UTC(),
	}
	return stat, nil
}

// classifyAll maps raw points onto tracked categories, dropping anything
// unclassifiable.
func classifyAll(neighborhoodID int64, raw []RawPlace) ([]model.Place, map[model.Category]int) {
	counts := map[model.Category]int{
		model.CategoryRestaurant: 0,
		model.CategoryCafe:       0,
		model.CategoryBar:        0,
	}

	var places []model.Place
	for _, r := range raw {
		category, ok := Classify(r.Amenity)
		if !ok {
			continue
		}
		counts[category]++

		tags, err := json.Marshal(r.Tags)
		if err != nil {
			tags = []byte("{}")
		}
		places = append(places, model.Place{
			NeighborhoodID: neighborhoodID,
			Name:           r.Name,
			Category:       category,
			Lat:            r.Lat,
			Lon:            r.Lon,
			Address:        address(r.Tags),
			Tags:           tags,
		})
	}
	return places, counts
}

// density is count per km², rounded to 3 decimals. Missing or non-positive
// area yields 0.0.
func density(count int, areaSqKm float64) float64 {
	if areaSqKm <= 0 || math.IsNaN(areaSqKm) {
		return 0.0
	}
	return math.Round(float64(count)/areaSqKm*1000) / 1000
}

func address(tags map[string]string) string {
	parts := []string{}
	if v := tags["addr:housenumber"]; v != "" {
		parts = append(parts, v)
	}
	if v := tags["addr:street"]; v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}
