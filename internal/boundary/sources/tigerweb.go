package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
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

// tractLayer is the census-tract layer id on the TIGERweb MapServer.
const tractLayer = "8"

// TIGERWeb fetches census tract boundaries from the US Census Bureau's
// TIGERweb REST API. The tract GEOID is globally unique already, so it is
// stored unprefixed.
type TIGERWeb struct {
	baseURL string
	client  *http.Client
	retry   resilience.RetryConfig
	log     *zap.Logger
}

// NewTIGERWeb creates the census source against the given MapServer base URL.
func NewTIGERWeb(baseURL string, timeout time.Duration, maxRetries int) *TIGERWeb {
	retry := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	retry.OnRetry = resilience.RetryLogger("sources.tigerweb", "fetch_tracts")
	return &TIGERWeb{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		log:     zap.L().With(zap.String("component", "sources.tigerweb")),
	}
}

func (s *TIGERWeb) Name() string { return "census_tract" }

// Fetch queries the tract layer for the city's state and county FIPS codes.
func (s *TIGERWeb) Fetch(ctx context.Context, city cities.City) ([]boundary.RawFeature, error) {
	if !city.HasCensusCodes() {
		return nil, &model.ConfigurationError{City: city.Key, Reason: "no state/county FIPS codes configured"}
	}

	query := url.Values{
		"where":          {s.whereClause(city)},
		"outFields":      {"GEOID,NAME,BASENAME,STATE,COUNTY,MTFCC,FUNCSTAT"},
		"returnGeometry": {"true"},
		"f":              {"geojson"},
		"outSR":          {"4326"},
	}
	reqURL := fmt.Sprintf("%s/%s/query?%s", s.baseURL, tractLayer, query.Encode())

	var fc *geojson.FeatureCollection
	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		body, err := getJSON(ctx, s.client, reqURL)
		if err != nil {
			return err
		}
		fc, err = geojson.UnmarshalFeatureCollection(body)
		if err != nil {
			return eris.Wrap(err, "sources: parse tract response")
		}
		return nil
	})
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: s.Name(), Err: err}
	}

	var out []boundary.RawFeature
	for _, f := range fc.Features {
		geoid := propString(f.Properties["GEOID"])
		out = append(out, boundary.RawFeature{
			Name:       tractName(f.Properties),
			ExternalID: geoid,
			Geometry:   f.Geometry,
			Props:      f.Properties,
		})
	}

	s.log.Info("fetched census tracts",
		zap.String("city", city.Key),
		zap.Int("features", len(out)))
	return out, nil
}

// whereClause filters by state and county FIPS. TIGERweb stores the codes
// without leading zeros, so "048" must be queried as "48".
func (s *TIGERWeb) whereClause(city cities.City) string {
	return fmt.Sprintf("STATE='%s' AND COUNTY='%s'",
		stripLeadingZeros(city.StateFIPS), stripLeadingZeros(city.CountyFIPS))
}

func stripLeadingZeros(code string) string {
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// tractName builds the placeholder display name. The ranking engine excludes
// these until a real place name replaces them.
func tractName(props map[string]any) string {
	name := propString(props["NAME"])
	if strings.Contains(name, "Census Tract") {
		return name
	}
	return "Census Tract " + name
}
