package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// roughly 1km x 1km square near Austin
func squarePolygon() orb.Polygon {
	return orb.Polygon{{
		{-97.74, 30.26}, {-97.7296, 30.26}, {-97.7296, 30.269}, {-97.74, 30.269}, {-97.74, 30.26},
	}}
}

// horseshoe whose centroid falls in the open mouth
func horseshoePolygon() orb.Polygon {
	return orb.Polygon{{
		{0, 0}, {3, 0}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}, {0, 0},
	}}
}

func TestNormalize_Polygon(t *testing.T) {
	c, err := Normalize(squarePolygon())
	require.NoError(t, err)

	require.Len(t, c.Boundary, 1)
	assert.InDelta(t, 1.0, c.AreaSqKm, 0.1)
	assert.True(t, planar.MultiPolygonContains(c.Boundary, c.Centroid))
}

func TestNormalize_MultiPolygonPassesThrough(t *testing.T) {
	mp := orb.MultiPolygon{squarePolygon()}
	c, err := Normalize(mp)
	require.NoError(t, err)
	assert.Equal(t, mp, c.Boundary)
}

func TestNormalize_CentroidFallsBackToPointOnSurface(t *testing.T) {
	c, err := Normalize(horseshoePolygon())
	require.NoError(t, err)

	// the raw centroid lands in the mouth; the derived point must not
	assert.True(t, planar.MultiPolygonContains(c.Boundary, c.Centroid))
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{"nil geometry", nil},
		{"empty polygon", orb.Polygon{}},
		{"empty multipolygon", orb.MultiPolygon{}},
		{"point", orb.Point{0, 0}},
		{"linestring", orb.LineString{{0, 0}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.geom)
			require.Error(t, err)
			assert.True(t, model.IsGeometry(err))
		})
	}
}

func TestNormalize_GeodesicAreaScalesWithLatitude(t *testing.T) {
	// the same degree extent covers less ground at 60N than at the equator
	atEquator := orb.Polygon{{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}}
	atNorth := orb.Polygon{{{0, 60}, {0.01, 60}, {0.01, 60.01}, {0, 60.01}, {0, 60}}}

	ce, err := Normalize(atEquator)
	require.NoError(t, err)
	cn, err := Normalize(atNorth)
	require.NoError(t, err)

	assert.Greater(t, ce.AreaSqKm, cn.AreaSqKm)
	// longitude degrees shrink by cos(latitude), so the ratio is near 2
	assert.InDelta(t, 2.0, ce.AreaSqKm/cn.AreaSqKm, 0.1)
}

func TestBoundingBox(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{-97.74, 30.26}, {-97.72, 30.26}, {-97.72, 30.28}, {-97.74, 30.28}, {-97.74, 30.26}}},
		{{{-97.70, 30.30}, {-97.69, 30.30}, {-97.69, 30.31}, {-97.70, 30.31}, {-97.70, 30.30}}},
	}

	bbox := BoundingBox(mp)
	assert.Equal(t, 30.26, bbox.MinLat)
	assert.Equal(t, -97.74, bbox.MinLon)
	assert.Equal(t, 30.31, bbox.MaxLat)
	assert.Equal(t, -97.69, bbox.MaxLon)
}
