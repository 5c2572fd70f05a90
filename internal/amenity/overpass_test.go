package amenity

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

const overpassResponse = `{
	"elements": [
		{"type": "node", "id": 1, "lat": 30.27, "lon": -97.73,
		 "tags": {"amenity": "restaurant", "name": "Franklin Barbecue", "addr:street": "E 11th St"}},
		{"type": "way", "id": 2, "center": {"lat": 30.26, "lon": -97.72},
		 "tags": {"amenity": "pub", "name": "The Crown"}},
		{"type": "way", "id": 3,
		 "tags": {"amenity": "cafe", "name": "No Center"}}
	]
}`

func testBBox() geometry.BBox {
	return geometry.BBox{MinLat: 30.26, MinLon: -97.74, MaxLat: 30.28, MaxLon: -97.72}
}

func TestOverpassClient_FetchPlaces(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		gotQuery = form.Get("data")
		_, _ = w.Write([]byte(overpassResponse))
	}))
	defer srv.Close()

	c := NewOverpassClient(srv.URL, 5*time.Second, 100, 1)
	places, err := c.FetchPlaces(context.Background(), testBBox())
	require.NoError(t, err)

	// the way without a center is dropped; the rest carry coordinates
	require.Len(t, places, 2)
	assert.Equal(t, "Franklin Barbecue", places[0].Name)
	assert.Equal(t, "restaurant", places[0].Amenity)
	assert.Equal(t, 30.27, places[0].Lat)
	assert.Equal(t, "pub", places[1].Amenity)
	assert.Equal(t, 30.26, places[1].Lat)

	// query covers nodes and ways for every tracked amenity value
	assert.Contains(t, gotQuery, `node["amenity"="restaurant"]`)
	assert.Contains(t, gotQuery, `way["amenity"="pub"]`)
	assert.Contains(t, gotQuery, "out tags center;")
	assert.Contains(t, gotQuery, "30.260000,-97.740000,30.280000,-97.720000")
}

func TestOverpassClient_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(overpassResponse))
	}))
	defer srv.Close()

	c := NewOverpassClient(srv.URL, 5*time.Second, 100, 3)
	c.retry.InitialBackoff = time.Millisecond

	places, err := c.FetchPlaces(context.Background(), testBBox())
	require.NoError(t, err)
	assert.Len(t, places, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOverpassClient_BadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOverpassClient(srv.URL, 5*time.Second, 100, 3)
	c.retry.InitialBackoff = time.Millisecond

	_, err := c.FetchPlaces(context.Background(), testBBox())
	require.Error(t, err)
	assert.True(t, model.IsSourceUnavailable(err))
	assert.Equal(t, int32(1), calls.Load())
}
