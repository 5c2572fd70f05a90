package amenity

import (
	"context"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/geometry"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeProvider struct {
	mu      sync.Mutex
	places  []RawPlace
	err     error
	queries int
}

func (f *fakeProvider) FetchPlaces(_ context.Context, _ geometry.BBox) ([]RawPlace, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.places, nil
}

type fakeStore struct {
	store.Store

	mu            sync.Mutex
	neighborhoods []model.Neighborhood
	placesByID    map[int64][]model.Place
	statsByID     map[int64]model.PlaceStat
	replaceCalls  int
}

func newFakeStore(neighborhoods ...model.Neighborhood) *fakeStore {
	return &fakeStore{
		neighborhoods: neighborhoods,
		placesByID:    make(map[int64][]model.Place),
		statsByID:     make(map[int64]model.PlaceStat),
	}
}

func (f *fakeStore) ListNeighborhoodsByCity(_ context.Context, _ string) ([]model.Neighborhood, error) {
	return f.neighborhoods, nil
}

func (f *fakeStore) ReplacePlaces(_ context.Context, id int64, places []model.Place) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	f.placesByID[id] = places
	return int64(len(places)), nil
}

func (f *fakeStore) UpsertStat(_ context.Context, stat *model.PlaceStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsByID[stat.NeighborhoodID] = *stat
	return nil
}

func (f *fakeStore) UpsertStats(_ context.Context, stats []model.PlaceStat) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stat := range stats {
		f.statsByID[stat.NeighborhoodID] = stat
	}
	return int64(len(stats)), nil
}

func testNeighborhood(id int64, name string) model.Neighborhood {
	return model.Neighborhood{
		ID:       id,
		Name:     name,
		AreaSqKm: 2.4,
		Boundary: orb.MultiPolygon{{
			{{-97.74, 30.26}, {-97.72, 30.26}, {-97.72, 30.28}, {-97.74, 30.28}, {-97.74, 30.26}},
		}},
	}
}

func TestAggregateNeighborhood(t *testing.T) {
	st := newFakeStore()
	provider := &fakeProvider{places: []RawPlace{
		{Name: "Franklin Barbecue", Amenity: "restaurant", Lat: 30.27, Lon: -97.73},
		{Name: "Epoch", Amenity: "cafe", Lat: 30.27, Lon: -97.73},
		{Name: "Whisler's", Amenity: "bar", Lat: 30.26, Lon: -97.72},
		{Name: "The Crown", Amenity: "pub", Lat: 30.26, Lon: -97.72},
		{Name: "Garage", Amenity: "parking", Lat: 30.26, Lon: -97.72},
	}}
	agg := NewAggregator(st, provider, 1)

	stat, err := agg.AggregateNeighborhood(context.Background(), testNeighborhood(1, "Hyde Park"))
	require.NoError(t, err)

	assert.Equal(t, 1, stat.RestaurantCount)
	assert.Equal(t, 1, stat.CafeCount)
	assert.Equal(t, 2, stat.BarCount)
	assert.Equal(t, 4, stat.TotalAmenities)
	assert.Equal(t, 0.417, stat.RestaurantDensity)
	assert.Equal(t, 0.833, stat.BarDensity)
	assert.Greater(t, stat.VibrancyIndex, 0.0)
	assert.False(t, stat.LastUpdated.IsZero())

	// place cache replaced with only classified points
	assert.Len(t, st.placesByID[1], 4)
	assert.Equal(t, *stat, st.statsByID[1])
}

func TestAggregateNeighborhood_ProviderErrorLeavesCacheUntouched(t *testing.T) {
	st := newFakeStore()
	provider := &fakeProvider{err: &model.SourceUnavailableError{Source: "overpass", Err: context.DeadlineExceeded}}
	agg := NewAggregator(st, provider, 1)

	_, err := agg.AggregateNeighborhood(context.Background(), testNeighborhood(1, "Hyde Park"))
	require.Error(t, err)
	assert.True(t, model.IsSourceUnavailable(err))
	assert.Zero(t, st.replaceCalls)
	assert.Empty(t, st.statsByID)
}

func TestAggregateNeighborhood_NoPlaces(t *testing.T) {
	st := newFakeStore()
	agg := NewAggregator(st, &fakeProvider{}, 1)

	stat, err := agg.AggregateNeighborhood(context.Background(), testNeighborhood(1, "Empty Tract"))
	require.NoError(t, err)

	assert.Zero(t, stat.TotalAmenities)
	assert.Equal(t, 0.0, stat.VibrancyIndex)
	// the stale cache is still cleared
	assert.Equal(t, 1, st.replaceCalls)
}

func TestAggregateCity_ProcessesEveryNeighborhood(t *testing.T) {
	n1 := testNeighborhood(1, "Hyde Park")
	n2 := testNeighborhood(2, "Mueller")
	st := newFakeStore(n1, n2)

	provider := &fakeProvider{places: []RawPlace{
		{Name: "Spot", Amenity: "cafe", Lat: 30.27, Lon: -97.73},
	}}
	agg := NewAggregator(st, provider, 2)

	res, err := agg.AggregateCity(context.Background(), "austin")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 2, provider.queries)
	assert.Len(t, st.statsByID, 2)
	assert.Equal(t, 1, st.statsByID[1].CafeCount)
	assert.Equal(t, 1, st.statsByID[2].CafeCount)
}

func TestAggregateCity_RecordsPerNeighborhoodErrors(t *testing.T) {
	st := newFakeStore(testNeighborhood(1, "Hyde Park"))
	provider := &fakeProvider{err: &model.SourceUnavailableError{Source: "overpass", Err: context.DeadlineExceeded}}
	agg := NewAggregator(st, provider, 1)

	res, err := agg.AggregateCity(context.Background(), "austin")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Succeeded)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Hyde Park")
}
