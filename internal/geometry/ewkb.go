package geometry

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// EncodeMultiPolygon marshals a canonical boundary to EWKB with SRID 4326,
// the representation PostGIS geography columns are fed through ST_GeomFromEWKB.
func EncodeMultiPolygon(mp orb.MultiPolygon) ([]byte, error) {
	coords := make([][][]geom.Coord, len(mp))
	for i, poly := range mp {
		rings := make([][]geom.Coord, len(poly))
		for j, ring := range poly {
			pts := make([]geom.Coord, len(ring))
			for k, pt := range ring {
				pts[k] = geom.Coord{pt[0], pt[1]}
			}
			rings[j] = pts
		}
		coords[i] = rings
	}

	g := geom.NewMultiPolygon(geom.XY)
	if _, err := g.SetCoords(coords); err != nil {
		return nil, eris.Wrap(err, "geometry: set multipolygon coords")
	}
	g.SetSRID(4326)

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode multipolygon EWKB")
	}
	return data, nil
}

// EncodePoint marshals a centroid to EWKB with SRID 4326.
func EncodePoint(pt orb.Point) ([]byte, error) {
	g := geom.NewPointFlat(geom.XY, []float64{pt[0], pt[1]})
	g.SetSRID(4326)

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode point EWKB")
	}
	return data, nil
}

// DecodeMultiPolygon unmarshals WKB bytes (as returned by ST_AsBinary) back
// into an orb multi-polygon. A bare polygon is promoted to a single-element
// multi-polygon for uniformity.
func DecodeMultiPolygon(data []byte) (orb.MultiPolygon, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB")
	}

	switch s := g.(type) {
	case *geom.MultiPolygon:
		mp := make(orb.MultiPolygon, s.NumPolygons())
		for i := 0; i < s.NumPolygons(); i++ {
			mp[i] = polygonFromGeom(s.Polygon(i))
		}
		return mp, nil
	case *geom.Polygon:
		return orb.MultiPolygon{polygonFromGeom(s)}, nil
	default:
		return nil, eris.Errorf("geometry: unexpected WKB type %T", g)
	}
}

// DecodePoint unmarshals WKB point bytes into an orb point.
func DecodePoint(data []byte) (orb.Point, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return orb.Point{}, eris.Wrap(err, "geometry: decode point WKB")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return orb.Point{}, eris.Errorf("geometry: unexpected WKB type %T", g)
	}
	c := pt.Coords()
	return orb.Point{c[0], c[1]}, nil
}

func polygonFromGeom(p *geom.Polygon) orb.Polygon {
	poly := make(orb.Polygon, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		ring := p.LinearRing(i)
		coords := ring.Coords()
		r := make(orb.Ring, len(coords))
		for j, c := range coords {
			r[j] = orb.Point{c[0], c[1]}
		}
		poly[i] = r
	}
	return poly
}
