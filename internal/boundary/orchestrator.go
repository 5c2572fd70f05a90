package boundary

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

// Sources holds one instance of each provider strategy. A city picks its
// primary strategy by configuration; exactly one wins, except the census
// layer which may run in addition as a supplementary pass.
type Sources struct {
	Portal    Source // city open-data GeoJSON endpoint
	Shapefile Source // local commercial neighborhood shapefile
	Census    Source // national census tract fallback
}

// ImportResult summarizes one city import.
type ImportResult struct {
	City     string
	Method   string
	Fresh    bool // skipped outright by the freshness gate
	Imported int
	Skipped  int
	Failed   int
	Errors   []string
}

func (r *ImportResult) merge(other *ImportResult) {
	r.Imported += other.Imported
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// Importer runs the boundary import state machine per city.
type Importer struct {
	store     store.Store
	registry  *cities.Registry
	sources   Sources
	staleness time.Duration
	log       *zap.Logger
}

// NewImporter wires the orchestrator. staleness is the freshness window; a
// city imported more recently than this is skipped unless forced.
func NewImporter(st store.Store, registry *cities.Registry, sources Sources, staleness time.Duration) *Importer {
	return &Importer{
		store:     st,
		registry:  registry,
		sources:   sources,
		staleness: staleness,
		log:       zap.L().With(zap.String("component", "boundary.importer")),
	}
}

// ImportCity imports boundaries for one city key. Unknown or disabled keys
// return a ConfigurationError. Provider outages and per-feature failures are
// recorded in the result, not returned.
func (im *Importer) ImportCity(ctx context.Context, key string, force bool) (*ImportResult, error) {
	city, err := im.registry.Get(key)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{City: key}

	if !force {
		fresh, err := im.isFresh(ctx, city)
		if err != nil {
			return nil, err
		}
		if fresh {
			im.log.Info("skipping fresh city",
				zap.String("city", key),
				zap.Duration("staleness_window", im.staleness))
			result.Fresh = true
			return result, nil
		}
	}

	primary, supplementary := im.selectSources(city)
	if primary == nil {
		return nil, &model.ConfigurationError{City: key, Reason: "no boundary source configured"}
	}
	result.Method = primary.Name()

	im.runSource(ctx, primary, city, result)
	if supplementary != nil {
		im.runSource(ctx, supplementary, city, result)
	}

	im.log.Info("city import finished",
		zap.String("city", key),
		zap.String("method", result.Method),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// ImportAll runs ImportCity for every enabled city. A failing city is logged
// and the run continues.
func (im *Importer) ImportAll(ctx context.Context, force bool) ([]*ImportResult, error) {
	var results []*ImportResult
	for _, key := range im.registry.Keys() {
		res, err := im.ImportCity(ctx, key, force)
		if err != nil {
			im.log.Error("city import failed", zap.String("city", key), zap.Error(err))
			results = append(results, &ImportResult{
				City:   key,
				Failed: 1,
				Errors: []string{err.Error()},
			})
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// selectSources returns the winning primary strategy plus the supplementary
// census layer when it applies. Priority: portal endpoint, then shapefile,
// then census tracts.
func (im *Importer) selectSources(city cities.City) (primary, supplementary Source) {
	switch {
	case city.Endpoint != "" && im.sources.Portal != nil:
		primary = im.sources.Portal
	case city.Shapefile != "" && im.sources.Shapefile != nil:
		primary = im.sources.Shapefile
	case city.HasCensusCodes() && im.sources.Census != nil:
		return im.sources.Census, nil
	default:
		return nil, nil
	}

	if city.HasCensusCodes() && im.sources.Census != nil {
		supplementary = im.sources.Census
	}
	return primary, supplementary
}

func (im *Importer) isFresh(ctx context.Context, city cities.City) (bool, error) {
	last, err := im.store.LastImportTime(ctx, city.CityName())
	if err != nil {
		return false, eris.Wrapf(err, "boundary: last import time for %s", city.Key)
	}
	return last != nil && time.Since(*last) < im.staleness, nil
}

func (im *Importer) runSource(ctx context.Context, src Source, city cities.City, result *ImportResult) {
	features, err := src.Fetch(ctx, city)
	if err != nil {
		im.log.Warn("boundary source unavailable",
			zap.String("city", city.Key),
			zap.String("source", src.Name()),
			zap.Error(err))
		result.Failed++
		result.Errors = append(result.Errors, err.Error())
		return
	}

	for _, f := range features {
		switch err := im.importFeature(ctx, city, f); {
		case err == nil:
			result.Imported++
		case eris.Is(err, errAlreadyImported):
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.ExternalID, err))
			im.log.Warn("feature skipped",
				zap.String("city", city.Key),
				zap.String("geoid", f.ExternalID),
				zap.Error(err))
		}
	}
}

var errAlreadyImported = eris.New("already imported")

func (im *Importer) importFeature(ctx context.Context, city cities.City, f RawFeature) error {
	if f.ExternalID == "" {
		return &model.ValidationError{Field: "geoid", Reason: "missing external id"}
	}
	if f.Name == "" {
		return &model.ValidationError{Field: "name", Reason: "missing feature name"}
	}

	exists, err := im.store.NeighborhoodExists(ctx, f.ExternalID)
	if err != nil {
		return eris.Wrap(err, "boundary: check existing")
	}
	if exists {
		return errAlreadyImported
	}

	canonical, err := geometry.Normalize(f.Geometry)
	if err != nil {
		return err
	}

	slug, err := im.uniqueSlug(ctx, f.Name, city)
	if err != nil {
		return err
	}

	n := &model.Neighborhood{
		GeoID:     f.ExternalID,
		Name:      f.Name,
		Slug:      slug,
		City:      city.CityName(),
		County:    city.County,
		State:     city.State,
		Country:   city.Country,
		Continent: city.Continent(),
		AreaSqKm:  canonical.AreaSqKm,
		Boundary:  canonical.Boundary,
		Centroid:  canonical.Centroid,
	}
	if err := im.store.CreateNeighborhood(ctx, n); err != nil {
		return eris.Wrap(err, "boundary: persist neighborhood")
	}
	return nil
}

// uniqueSlug derives the name-city-state slug, appending a numeric suffix
// starting at 1 on collision.
func (im *Importer) uniqueSlug(ctx context.Context, name string, city cities.City) (string, error) {
	base := Slugify(name, city.CityName(), city.State)
	if base == "" {
		return "", &model.ValidationError{Field: "slug", Reason: "name produced empty slug"}
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := im.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", eris.Wrap(err, "boundary: check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
