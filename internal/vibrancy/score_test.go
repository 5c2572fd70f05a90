package vibrancy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

func counts(restaurant, cafe, bar int) map[model.Category]int {
	return map[model.Category]int{
		model.CategoryRestaurant: restaurant,
		model.CategoryCafe:       cafe,
		model.CategoryBar:        bar,
	}
}

func TestScore_ZeroAmenities(t *testing.T) {
	assert.Zero(t, Score(counts(0, 0, 0), 1.0))
	assert.Zero(t, Score(map[model.Category]int{}, 5.0))
	assert.Zero(t, Score(nil, 0))
}

func TestScore_EvenSplitExample(t *testing.T) {
	// 30 venues over 1 km²: density 30/80 = 0.375, diversity 1.0,
	// volume 1-e^-1.5 ≈ 0.777.
	got := Score(counts(10, 10, 10), 1.0)
	assert.InDelta(t, 6.83, got, 0.01)
}

func TestScore_SingleCategory(t *testing.T) {
	got := Score(counts(0, 0, 5), 2.5)
	// diversity contributes nothing
	density := math.Min((5.0/2.5)/40.0, 1.0)
	volume := 1 - math.Exp(-5.0/20.0)
	want := math.Round((0.4*density+0.3*volume)*10*100) / 100
	assert.Equal(t, want, got)
}

func TestScore_Bounds(t *testing.T) {
	cases := []struct {
		name string
		c    map[model.Category]int
		area float64
	}{
		{"dense tiny area", counts(500, 500, 500), 0.1},
		{"huge suburban", counts(3, 1, 0), 85.0},
		{"missing area", counts(40, 12, 9), 0},
		{"negative area", counts(1, 0, 0), -3},
		{"single venue", counts(1, 0, 0), 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.c, tc.area)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 10.0)
		})
	}
}

func TestScore_TwoDecimalPrecision(t *testing.T) {
	got := Score(counts(7, 3, 2), 1.3)
	assert.Equal(t, got, math.Round(got*100)/100)
}

func TestDensityFactor_AdaptiveSaturation(t *testing.T) {
	cases := []struct {
		name  string
		total int
		area  float64
		want  float64
	}{
		{"micro neighborhood", 30, 0.4, (30.0 / 0.4) / 150.0},
		{"compact urban", 30, 1.0, (30.0 / 1.0) / 80.0},
		{"standard tract", 30, 3.0, (30.0 / 3.0) / 40.0},
		{"large suburban", 30, 10.0, (30.0 / 10.0) / 20.0},
		{"capped at one", 900, 1.0, 1.0},
		{"band edge half km", 20, 0.5, (20.0 / 0.5) / 80.0},
		{"band edge two km", 80, 2.0, (80.0 / 2.0) / 40.0},
		{"band edge five km", 100, 5.0, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, DensityFactor(tc.total, tc.area), 1e-9)
		})
	}
}

func TestDensityFactor_MissingArea(t *testing.T) {
	assert.Equal(t, 0.5, DensityFactor(25, 0))
	assert.Equal(t, 0.5, DensityFactor(25, -1))
	assert.Equal(t, 0.5, DensityFactor(25, math.NaN()))
}

func TestDiversityFactor_EvenSplitIsMaximal(t *testing.T) {
	assert.InDelta(t, 1.0, DiversityFactor(counts(7, 7, 7)), 1e-9)
}

func TestDiversityFactor_SingleCategoryIsZero(t *testing.T) {
	assert.Zero(t, DiversityFactor(counts(12, 0, 0)))
	assert.Zero(t, DiversityFactor(counts(0, 3, 0)))
}

func TestDiversityFactor_UnevenBetweenZeroAndOne(t *testing.T) {
	got := DiversityFactor(counts(20, 5, 1))
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestVolumeFactor_Monotonic(t *testing.T) {
	prev := -1.0
	for _, n := range []int{0, 1, 5, 10, 20, 50, 100, 500, 2000} {
		got := VolumeFactor(n)
		require.Greater(t, got, prev, "volume factor must increase with count (n=%d)", n)
		// 1-e^(-n/20) rounds to exactly 1.0 in float64 for large n
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}
}

func TestVolumeFactor_Asymptote(t *testing.T) {
	assert.InDelta(t, 1.0, VolumeFactor(100000), 1e-9)
}
