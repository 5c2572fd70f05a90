package amenity

import "github.com/tripheatmap/neighborhood-cli/internal/model"

// categoryByAmenity is the fixed mapping from raw OSM amenity values to
// tracked categories. 'pub' folds into bar; anything unlisted is discarded.
var categoryByAmenity = map[string]model.Category{
	"restaurant": model.CategoryRestaurant,
	"cafe":       model.CategoryCafe,
	"bar":        model.CategoryBar,
	"pub":        model.CategoryBar,
}

// Classify maps a raw amenity value onto a tracked category.
func Classify(amenity string) (model.Category, bool) {
	c, ok := categoryByAmenity[amenity]
	return c, ok
}
