package model

// Category is one of the fixed amenity categories tracked by the pipeline.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryBar        Category = "bar"
)

// Categories lists every tracked category in display priority order
// (restaurant first, then bar, then cafe, matching highlight resolution).
var Categories = []Category{CategoryRestaurant, CategoryBar, CategoryCafe}

// TrackedCategoryCount is K in the diversity normalization ln(K).
const TrackedCategoryCount = 3

// HighlightPriority returns the sort key used when resolving representative
// venues for a ranked card. Unknown categories sort last.
func HighlightPriority(c Category) int {
	switch c {
	case CategoryRestaurant:
		return 0
	case CategoryBar:
		return 1
	case CategoryCafe:
		return 2
	default:
		return 99
	}
}

// Valid reports whether c is one of the tracked categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryCafe, CategoryBar:
		return true
	}
	return false
}
