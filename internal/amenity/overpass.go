// Package amenity fetches points of interest, classifies them into the
// tracked categories, and maintains each neighborhood's place cache and
// aggregate stats.
package amenity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/resilience"
)

// osmAmenities are the raw amenity values queried from OpenStreetMap. Both
// 'bar' and 'pub' are fetched; classification merges them.
var osmAmenities = []string{"restaurant", "cafe", "bar", "pub"}

// RawPlace is one point feature as the provider returned it.
type RawPlace struct {
	Name    string
	Amenity string
	Lat     float64
	Lon     float64
	Tags    map[string]string
}

// Provider fetches raw point features within a bounding box.
type Provider interface {
	FetchPlaces(ctx context.Context, bbox geometry.BBox) ([]RawPlace, error)
}

// OverpassClient queries the Overpass API. The public instance enforces a
// strict rate limit, so every request goes through a shared limiter and
// calls are never issued concurrently against it.
type OverpassClient struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	log     *zap.Logger
}

// NewOverpassClient creates the client. requestsPerSec throttles the shared
// limiter; zero falls back to one request per second.
func NewOverpassClient(apiURL string, timeout time.Duration, requestsPerSec float64, maxRetries int) *OverpassClient {
	if requestsPerSec <= 0 {
		requestsPerSec = 1
	}
	retry := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	retry.OnRetry = resilience.RetryLogger("amenity.overpass", "fetch_places")
	return &OverpassClient{
		url:     apiURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		retry:   retry,
		log:     zap.L().With(zap.String("component", "amenity.overpass")),
	}
}

// FetchPlaces runs one Overpass QL query for all tracked amenity values in
// the bounding box.
func (c *OverpassClient) FetchPlaces(ctx context.Context, bbox geometry.BBox) ([]RawPlace, error) {
	query := buildQuery(bbox)

	var elements []overpassElement
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		elements, err = c.post(ctx, query)
		return err
	})
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: "overpass", Err: err}
	}

	places := make([]RawPlace, 0, len(elements))
	for _, el := range elements {
		lat, lon, ok := el.position()
		if !ok {
			continue
		}
		places = append(places, RawPlace{
			Name:    el.Tags["name"],
			Amenity: el.Tags["amenity"],
			Lat:     lat,
			Lon:     lon,
			Tags:    el.Tags,
		})
	}

	c.log.Debug("overpass query finished",
		zap.Int("elements", len(elements)),
		zap.Int("places", len(places)))
	return places, nil
}

func (c *OverpassClient) post(ctx context.Context, query string) ([]overpassElement, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "amenity: build overpass request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(
			eris.Errorf("overpass status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("amenity: overpass status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "amenity: read overpass response")
	}

	var parsed struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "amenity: parse overpass response")
	}
	return parsed.Elements, nil
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// position returns the element's coordinate. Nodes carry lat/lon directly;
// ways carry a computed center.
func (e overpassElement) position() (lat, lon float64, ok bool) {
	switch {
	case e.Type == "node":
		return e.Lat, e.Lon, true
	case e.Center != nil:
		return e.Center.Lat, e.Center.Lon, true
	default:
		return 0, 0, false
	}
}

// buildQuery emits Overpass QL selecting nodes and ways for each amenity
// value in the bbox. 'out tags center' includes way centers so every element
// has a usable coordinate.
func buildQuery(bbox geometry.BBox) string {
	coords := fmt.Sprintf("%f,%f,%f,%f", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, amenity := range osmAmenities {
		fmt.Fprintf(&b, "  node[\"amenity\"=\"%s\"](%s);\n", amenity, coords)
		fmt.Fprintf(&b, "  way[\"amenity\"=\"%s\"](%s);\n", amenity, coords)
	}
	b.WriteString(");\nout tags center;")
	return b.String()
}
