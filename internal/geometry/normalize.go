// Package geometry normalizes raw provider geometry into the single canonical
// shape the rest of the pipeline works with: a WGS84 multi-polygon with a
// derived interior centroid and geodesic area.
package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// Canonical is the normalized form of an imported boundary.
type Canonical struct {
	Boundary orb.MultiPolygon
	Centroid orb.Point
	AreaSqKm float64
}

// Normalize converts a raw polygon or multi-polygon into canonical form.
// It is a pure transform: no I/O, no mutation of the input.
//
// The centroid falls back to a point-on-surface when the geometric centroid
// is degenerate or lands outside the shape (possible for non-convex or
// multi-part geometry). If neither can be derived the feature is rejected
// with a GeometryError.
func Normalize(g orb.Geometry) (Canonical, error) {
	var mp orb.MultiPolygon

	switch s := g.(type) {
	case orb.Polygon:
		if len(s) == 0 {
			return Canonical{}, &model.GeometryError{Reason: "empty polygon"}
		}
		mp = orb.MultiPolygon{s}
	case orb.MultiPolygon:
		if len(s) == 0 {
			return Canonical{}, &model.GeometryError{Reason: "empty multipolygon"}
		}
		mp = s
	case nil:
		return Canonical{}, &model.GeometryError{Reason: "missing geometry"}
	default:
		return Canonical{}, &model.GeometryError{Reason: "unsupported geometry type " + g.GeoJSONType()}
	}

	// Geodesic surface area, not planar: density saturation thresholds depend
	// on real km² even for large, high-latitude cities.
	areaSqKm := math.Abs(geo.Area(mp)) / 1e6

	centroid, ok := interiorPoint(mp)
	if !ok {
		return Canonical{}, &model.GeometryError{Reason: "cannot derive interior point"}
	}

	return Canonical{
		Boundary: mp,
		Centroid: centroid,
		AreaSqKm: areaSqKm,
	}, nil
}

// interiorPoint returns the geometric centroid when it lies inside the shape,
// otherwise a point-on-surface guaranteed to be interior.
func interiorPoint(mp orb.MultiPolygon) (orb.Point, bool) {
	centroid, area := planar.CentroidArea(mp)

	if area != 0 && !math.IsNaN(centroid[0]) && !math.IsNaN(centroid[1]) {
		if planar.MultiPolygonContains(mp, centroid) {
			return centroid, true
		}
	}

	return pointOnSurface(mp)
}

// pointOnSurface finds an interior point via a horizontal scanline through
// each polygon's vertical midpoint, taking the midpoint of the widest
// even-odd crossing interval. Works for non-convex and multi-part shapes.
func pointOnSurface(mp orb.MultiPolygon) (orb.Point, bool) {
	var best orb.Point
	bestWidth := -1.0

	for _, poly := range mp {
		if len(poly) == 0 || len(poly[0]) < 3 {
			continue
		}

		bound := poly[0].Bound()
		y := (bound.Min[1] + bound.Max[1]) / 2

		xs := ringCrossings(poly, y)
		if len(xs) < 2 {
			continue
		}

		// Pair crossings: intervals between xs[0]-xs[1], xs[2]-xs[3], ... are
		// interior per the even-odd rule.
		for i := 0; i+1 < len(xs); i += 2 {
			width := xs[i+1] - xs[i]
			if width > bestWidth {
				bestWidth = width
				best = orb.Point{(xs[i] + xs[i+1]) / 2, y}
			}
		}
	}

	if bestWidth <= 0 {
		return orb.Point{}, false
	}
	return best, true
}

// ringCrossings collects x coordinates where the polygon's rings (outer and
// holes) cross the horizontal line at y, sorted ascending.
func ringCrossings(poly orb.Polygon, y float64) []float64 {
	var xs []float64
	for _, ring := range poly {
		n := len(ring)
		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]
			if (a[1] <= y && b[1] > y) || (b[1] <= y && a[1] > y) {
				t := (y - a[1]) / (b[1] - a[1])
				xs = append(xs, a[0]+t*(b[0]-a[0]))
			}
		}
	}
	sort.Float64s(xs)
	return xs
}

// BBox is a geographic bounding box in lat/lon order, matching the POI
// provider contract.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundingBox derives the bbox of a canonical boundary.
func BoundingBox(mp orb.MultiPolygon) BBox {
	b := mp.Bound()
	return BBox{
		MinLat: b.Min[1],
		MinLon: b.Min[0],
		MaxLat: b.Max[1],
		MaxLon: b.Max[0],
	}
}
