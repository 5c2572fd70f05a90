package boundary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

const acsResponse = `[
	["B01003_001E","state","county","tract"],
	["4213","48","113","001205"],
	["2891","48","113","001300"],
	["-666666666","48","113","990000"],
	["not-a-number","48","113","001400"]
]`

type populationStore struct {
	*fakeStore
	updates map[string]int
}

func (s *populationStore) UpdatePopulationByGeoID(_ context.Context, geoid string, population int) (bool, error) {
	if s.updates == nil {
		s.updates = make(map[string]int)
	}
	s.updates[geoid] = population
	return geoid == "48113001205", nil
}

func TestPopulationEnricher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "B01003_001E", r.URL.Query().Get("get"))
		assert.Equal(t, "tract:*", r.URL.Query().Get("for"))
		_, _ = w.Write([]byte(acsResponse))
	}))
	defer srv.Close()

	st := &populationStore{fakeStore: newFakeStore()}
	enricher := NewPopulationEnricher(st, srv.Client(), srv.URL)

	city := cities.City{Key: "dallas", Name: "Dallas", Country: "United States", StateFIPS: "48", CountyFIPS: "113"}
	updated, err := enricher.Enrich(context.Background(), city)
	require.NoError(t, err)

	// only the geoid matched by the store counts as updated
	assert.Equal(t, 1, updated)
	assert.Equal(t, 4213, st.updates["48113001205"])
	assert.Equal(t, 2891, st.updates["48113001300"])

	// sentinel negatives and malformed values are skipped
	assert.NotContains(t, st.updates, "48113990000")
	assert.NotContains(t, st.updates, "48113001400")
}

func TestPopulationEnricher_NoCensusCodes(t *testing.T) {
	enricher := NewPopulationEnricher(newFakeStore(), nil, "https://example.com")

	city := cities.City{Key: "austin", Name: "Austin", Country: "United States"}
	_, err := enricher.Enrich(context.Background(), city)
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestPopulationEnricher_SourceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	enricher := NewPopulationEnricher(newFakeStore(), srv.Client(), srv.URL)

	city := cities.City{Key: "dallas", Name: "Dallas", Country: "United States", StateFIPS: "48", CountyFIPS: "113"}
	_, err := enricher.Enrich(context.Background(), city)
	require.Error(t, err)
	assert.True(t, model.IsSourceUnavailable(err))
}

func TestParseACSRows(t *testing.T) {
	rows, err := parseACSRows([]byte(acsResponse))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "48113001205", rows[0].geoid)
	assert.Equal(t, 4213, rows[0].population)
}

func TestParseACSRows_Malformed(t *testing.T) {
	_, err := parseACSRows([]byte(`{"not": "an array"}`))
	assert.Error(t, err)

	rows, err := parseACSRows([]byte(`[["B01003_001E","state","county","tract"]]`))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
