// Package sources implements the boundary provider strategies: city
// open-data portals, TIGERweb census tracts, and local shapefiles.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/boundary"
	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/resilience"
)

// CityPortal fetches a GeoJSON FeatureCollection from a city's open-data
// endpoint. Display name and external id come from the per-city field
// mappings; geoids are namespaced with the uppercase city key so portal ids
// never collide across cities.
type CityPortal struct {
	client *http.Client
	retry  resilience.RetryConfig
	log    *zap.Logger
}

// NewCityPortal creates the portal source with the given timeout and retry
// budget.
func NewCityPortal(timeout time.Duration, maxRetries int) *CityPortal {
	retry := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	retry.OnRetry = resilience.RetryLogger("sources.cityportal", "fetch_boundaries")
	return &CityPortal{
		client: &http.Client{Timeout: timeout},
		retry:  retry,
		log:    zap.L().With(zap.String("component", "sources.cityportal")),
	}
}

func (s *CityPortal) Name() string { return "city_portal" }

// Fetch downloads and maps the city's feature collection.
func (s *CityPortal) Fetch(ctx context.Context, city cities.City) ([]boundary.RawFeature, error) {
	if city.Endpoint == "" {
		return nil, &model.ConfigurationError{City: city.Key, Reason: "no portal endpoint configured"}
	}

	fc, err := s.fetchCollection(ctx, city.Endpoint)
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: s.Name(), Err: err}
	}

	prefix := strings.ToUpper(city.Key) + "_"

	var out []boundary.RawFeature
	for _, f := range fc.Features {
		name, _ := f.Properties[city.FieldMappings.Name].(string)
		id := propString(f.Properties[city.FieldMappings.GeoID])

		raw := boundary.RawFeature{
			Name:     name,
			Geometry: f.Geometry,
			Props:    f.Properties,
		}
		if id != "" {
			raw.ExternalID = prefix + id
		}
		out = append(out, raw)
	}

	s.log.Info("fetched portal features",
		zap.String("city", city.Key),
		zap.Int("features", len(out)))
	return out, nil
}

func (s *CityPortal) fetchCollection(ctx context.Context, url string) (*geojson.FeatureCollection, error) {
	var fc *geojson.FeatureCollection

	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		body, err := getJSON(ctx, s.client, url)
		if err != nil {
			return err
		}
		fc, err = geojson.UnmarshalFeatureCollection(body)
		if err != nil {
			return eris.Wrap(err, "sources: parse feature collection")
		}
		return nil
	})
	return fc, err
}

// getJSON performs a GET, classifying rate-limit and server errors as
// transient so the retry loop backs off and tries again.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sources: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(
			eris.Errorf("status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sources: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sources: read response")
	}
	return body, nil
}

// propString renders a property value that may arrive as a string or a
// number, as portal schemas vary.
func propString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
