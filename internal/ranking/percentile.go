package ranking

import (
	"math"
	"sort"
)

// Percentile computes the nearest-rank percentile of values: sort ascending,
// index = round(p × (n−1)). p=0 yields the minimum, p=1 the maximum.
// Returns false when values is empty.
func Percentile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Round(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], true
}
