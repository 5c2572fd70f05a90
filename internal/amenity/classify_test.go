package amenity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		amenity string
		want    model.Category
		ok      bool
	}{
		{"restaurant", model.CategoryRestaurant, true},
		{"cafe", model.CategoryCafe, true},
		{"bar", model.CategoryBar, true},
		{"pub", model.CategoryBar, true},
		{"fast_food", "", false},
		{"parking", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.amenity, func(t *testing.T) {
			got, ok := Classify(tt.amenity)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyAll_MergesPubIntoBar(t *testing.T) {
	raw := []RawPlace{
		{Name: "The Crown", Amenity: "pub"},
		{Name: "Whisler's", Amenity: "bar"},
		{Name: "Epoch", Amenity: "cafe"},
		{Name: "Car Park", Amenity: "parking"},
	}

	places, counts := classifyAll(1, raw)
	assert.Len(t, places, 3)
	assert.Equal(t, 2, counts[model.CategoryBar])
	assert.Equal(t, 1, counts[model.CategoryCafe])
	assert.Zero(t, counts[model.CategoryRestaurant])

	for _, p := range places {
		assert.Equal(t, int64(1), p.NeighborhoodID)
		assert.NotEqual(t, model.Category("parking"), p.Category)
	}
}

func TestDensity(t *testing.T) {
	assert.Equal(t, 5.0, density(12, 2.4))
	assert.Equal(t, 4.167, density(10, 2.4))
	assert.Equal(t, 0.0, density(10, 0))
	assert.Equal(t, 0.0, density(10, -1))
}
