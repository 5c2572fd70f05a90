package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

func entry(id int64, name string, vibrancy float64) Entry {
	return Entry{
		Neighborhood: model.Neighborhood{ID: id, Name: name, City: "dallas", AreaSqKm: 1.5},
		Stat: &model.PlaceStat{
			NeighborhoodID:    id,
			RestaurantCount:   10,
			CafeCount:         5,
			BarCount:          5,
			TotalAmenities:    20,
			RestaurantDensity: 6.7,
			CafeDensity:       3.3,
			BarDensity:        3.3,
			VibrancyIndex:     vibrancy,
		},
	}
}

func TestRank_OrderAndTieBreak(t *testing.T) {
	entries := []Entry{
		entry(1, "Bishop Arts", 7.0),
		entry(2, "Deep Ellum", 9.0),
		entry(3, "Uptown", 7.0),
		entry(4, "Oak Cliff", 3.0),
	}

	lb := NewEngine(30).Rank("dallas", "TX", entries, nil)

	require.Len(t, lb.Cards, 4)
	names := []string{lb.Cards[0].Name, lb.Cards[1].Name, lb.Cards[2].Name, lb.Cards[3].Name}
	assert.Equal(t, []string{"Deep Ellum", "Bishop Arts", "Uptown", "Oak Cliff"}, names)
	assert.Equal(t, 1, lb.Cards[0].Rank)
	assert.Equal(t, 4, lb.Cards[3].Rank)
}

func TestRank_ExcludesTractsAndUnscored(t *testing.T) {
	entries := []Entry{
		entry(1, "Deep Ellum", 8.0),
		entry(2, "Census Tract 1204.03", 9.5),
		{Neighborhood: model.Neighborhood{ID: 3, Name: "No Stats Yet"}},
	}

	lb := NewEngine(30).Rank("dallas", "TX", entries, nil)

	require.Len(t, lb.Cards, 1)
	assert.Equal(t, "Deep Ellum", lb.Cards[0].Name)
	assert.Equal(t, 1, lb.TotalNeighborhoods)
}

func TestRank_EmptyCityYieldsEmptyLeaderboard(t *testing.T) {
	lb := NewEngine(30).Rank("nowhere", "", nil, nil)
	assert.Empty(t, lb.Cards)
	assert.Zero(t, lb.TotalNeighborhoods)
	assert.Empty(t, lb.FAQItems)
}

func TestRank_TopNCapsCardsNotThresholds(t *testing.T) {
	var entries []Entry
	for i := int64(1); i <= 10; i++ {
		e := entry(i, string(rune('A'+i-1))+" District", float64(i))
		entries = append(entries, e)
	}

	lb := NewEngine(3).Rank("dallas", "TX", entries, nil)

	assert.Len(t, lb.Cards, 3)
	assert.Equal(t, 10, lb.TotalNeighborhoods)
	// 75th percentile over all ten scores [1..10]: round(0.75*9)=7 → 8.0
	require.NotNil(t, lb.Thresholds.Vibrancy)
	assert.Equal(t, 8.0, *lb.Thresholds.Vibrancy)
}

func TestRank_Highlights(t *testing.T) {
	entries := []Entry{entry(1, "Deep Ellum", 8.0)}
	places := map[int64][]model.Place{
		1: {
			{Name: "Cafe Z", Category: model.CategoryCafe},
			{Name: "Bar B", Category: model.CategoryBar},
			{Name: "Grill A", Category: model.CategoryRestaurant},
			{Name: "Grill B", Category: model.CategoryRestaurant},
		},
	}

	lb := NewEngine(30).Rank("dallas", "TX", entries, places)

	require.Len(t, lb.Cards, 1)
	hl := lb.Cards[0].Highlights
	require.Len(t, hl, 3)
	// Priority restaurant → bar → cafe, alphabetical within category.
	assert.Equal(t, "Grill A", hl[0].Name)
	assert.Equal(t, "Grill B", hl[1].Name)
	assert.Equal(t, "Bar B", hl[2].Name)
}

func TestRank_PageContent(t *testing.T) {
	entries := []Entry{
		entry(1, "Deep Ellum", 9.0),
		entry(2, "Bishop Arts", 7.5),
	}

	lb := NewEngine(30).Rank("dallas", "TX", entries, nil)

	assert.Contains(t, lb.HeroHeading, "Dallas, TX")
	assert.Contains(t, lb.HeroSummary, "2 neighborhoods")
	require.Len(t, lb.QuickSummary, 2)
	assert.Equal(t, "Deep Ellum · 9.0 / 10", lb.QuickSummary[0])
	assert.NotEmpty(t, lb.FAQItems)
}

func TestBuildHighlights_FewerThanThree(t *testing.T) {
	hl := buildHighlights([]model.Place{{Name: "Solo Cafe", Category: model.CategoryCafe}})
	require.Len(t, hl, 1)
	assert.Equal(t, "Solo Cafe", hl[0].Name)
}
