// Package vibrancy computes the 0–10 composite vibrancy index from amenity
// counts and neighborhood area. Everything here is pure computation.
package vibrancy

import (
	"math"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// Sub-score weights. Density dominates because walkability is the strongest
// "best place to stay" signal; volume and diversity split the remainder.
const (
	densityWeight   = 0.4
	volumeWeight    = 0.3
	diversityWeight = 0.3
)

// volumeScale sets the diminishing-returns knee of the volume curve: at 20
// venues the factor reaches ~0.63, at 60 it is ~0.95.
const volumeScale = 20.0

// neutralDensity is used when the area is missing or non-positive. An unknown
// area must not zero out an otherwise-vibrant neighborhood.
const neutralDensity = 0.5

// Score computes the composite vibrancy index on a 0–10 scale, rounded to two
// decimals. Returns exactly 0 when there are no amenities.
func Score(counts map[model.Category]int, areaSqKm float64) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	density := DensityFactor(total, areaSqKm)
	diversity := DiversityFactor(counts)
	volume := VolumeFactor(total)

	composite := densityWeight*density + volumeWeight*volume + diversityWeight*diversity
	return round2(composite * 10)
}

// DensityFactor normalizes amenities-per-km² against an adaptive saturation
// constant and caps the result at 1. Missing or non-positive areas yield the
// neutral default.
func DensityFactor(total int, areaSqKm float64) float64 {
	if areaSqKm <= 0 || math.IsNaN(areaSqKm) {
		return neutralDensity
	}
	density := float64(total) / areaSqKm
	return math.Min(density/saturation(areaSqKm), 1.0)
}

// saturation returns the per-km² density treated as fully vibrant. Compact
// urban cores pack far more venues per unit area than large suburban tracts,
// so smaller areas get a higher saturation point.
func saturation(areaSqKm float64) float64 {
	switch {
	case areaSqKm < 0.5:
		return 150.0
	case areaSqKm < 2.0:
		return 80.0
	case areaSqKm < 5.0:
		return 40.0
	default:
		return 20.0
	}
}

// DiversityFactor is the Shannon entropy of the category shares normalized by
// ln(K), K being the number of tracked categories. 0 for a single-category
// neighborhood, 1.0 for a perfectly even split across all categories.
func DiversityFactor(counts map[model.Category]int) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, n := range counts {
		if n == 0 {
			continue
		}
		share := float64(n) / float64(total)
		entropy -= share * math.Log(share)
	}

	return entropy / math.Log(float64(model.TrackedCategoryCount))
}

// VolumeFactor rewards raw venue count with diminishing returns so a
// neighborhood with hundreds of venues does not drown out one with a healthy
// few dozen. Monotonically increasing, asymptotically approaching 1.
func VolumeFactor(total int) float64 {
	return 1 - math.Exp(-float64(total)/volumeScale)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
