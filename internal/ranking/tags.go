package ranking

import "github.com/tripheatmap/neighborhood-cli/internal/model"

// Consumer-facing tag labels.
const (
	TagPlaceToBe     = "Place to Be"
	TagRemoteWorkers = "Remote Workers"
	TagFoodies       = "Foodies"
	TagNightlife     = "Nightlife Lovers"
)

// Thresholds holds the per-metric percentile cutoffs computed over the full
// city population of qualifying neighborhoods. A nil threshold disables its
// predicate.
type Thresholds struct {
	Vibrancy   *float64
	Restaurant *float64
	Cafe       *float64
	Bar        *float64
}

// AssignTags maps a neighborhood's score and densities against the city
// thresholds. Each predicate is independent; a neighborhood may earn zero,
// some, or all four labels. Missing thresholds or values never panic; the
// predicate is simply false.
func AssignTags(vibrancy float64, stat model.PlaceStat, th Thresholds) []string {
	var tags []string

	if meets(th.Vibrancy, vibrancy) {
		tags = append(tags, TagPlaceToBe)
	}
	if meets(th.Cafe, stat.CafeDensity) {
		tags = append(tags, TagRemoteWorkers)
	}
	if meets(th.Restaurant, stat.RestaurantDensity) {
		tags = append(tags, TagFoodies)
	}
	if meets(th.Bar, stat.BarDensity) {
		tags = append(tags, TagNightlife)
	}

	return tags
}

func meets(threshold *float64, value float64) bool {
	if threshold == nil {
		return false
	}
	return value >= *threshold
}
