package sources

import (
	"context"
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/boundary"
	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// nameFields and idFields are tried in order against the DBF attribute table.
// Commercial neighborhood shapefiles are not consistent about casing.
var (
	nameFields = []string{"Name", "NAME", "name", "NEIGHBORHD", "NBHD_NAME"}
	idFields   = []string{"RegionID", "REGIONID", "GEOID", "ID", "OBJECTID"}
)

// Shapefile reads commercial neighborhood polygons from a local shapefile
// configured per city. Geoids are namespaced with the uppercase city key,
// same as portal features.
type Shapefile struct {
	dir string
	log *zap.Logger
}

// NewShapefile creates the source rooted at the given directory; per-city
// paths in the registry are resolved relative to it unless absolute.
func NewShapefile(dir string) *Shapefile {
	return &Shapefile{
		dir: dir,
		log: zap.L().With(zap.String("component", "sources.shapefile")),
	}
}

func (s *Shapefile) Name() string { return "shapefile" }

// Fetch reads every polygon record from the city's shapefile.
func (s *Shapefile) Fetch(ctx context.Context, city cities.City) ([]boundary.RawFeature, error) {
	if city.Shapefile == "" {
		return nil, &model.ConfigurationError{City: city.Key, Reason: "no shapefile configured"}
	}

	path := city.Shapefile
	if !strings.HasPrefix(path, "/") && s.dir != "" {
		path = s.dir + "/" + path
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, &model.SourceUnavailableError{
			Source: s.Name(),
			Err:    eris.Wrapf(err, "open %s", path),
		}
	}
	defer reader.Close()

	fields := reader.Fields()
	nameIdx := fieldIndex(fields, nameFields)
	idIdx := fieldIndex(fields, idFields)
	prefix := strings.ToUpper(city.Key) + "_"

	var out []boundary.RawFeature
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		raw := boundary.RawFeature{Geometry: polygonToOrb(poly)}
		if nameIdx >= 0 {
			raw.Name = reader.ReadAttribute(row, nameIdx)
		}
		if idIdx >= 0 {
			if id := reader.ReadAttribute(row, idIdx); id != "" {
				raw.ExternalID = prefix + id
			}
		}
		if raw.ExternalID == "" {
			raw.ExternalID = fmt.Sprintf("%s%d", prefix, row)
		}
		out = append(out, raw)
	}
	if err := reader.Err(); err != nil {
		return nil, &model.SourceUnavailableError{
			Source: s.Name(),
			Err:    eris.Wrapf(err, "read %s", path),
		}
	}

	s.log.Info("read shapefile features",
		zap.String("city", city.Key),
		zap.String("path", path),
		zap.Int("features", len(out)))
	return out, nil
}

func fieldIndex(fields []shp.Field, candidates []string) int {
	for _, want := range candidates {
		for i, f := range fields {
			if strings.EqualFold(f.String(), want) {
				return i
			}
		}
	}
	return -1
}

// polygonToOrb splits a shapefile polygon's flat point list into rings by
// its part offsets. Clockwise rings open a new polygon; counterclockwise
// rings are holes in the preceding one, per the shapefile winding rule.
func polygonToOrb(p *shp.Polygon) orb.MultiPolygon {
	parts := append([]int32{}, p.Parts...)
	parts = append(parts, int32(len(p.Points)))

	var mp orb.MultiPolygon
	for i := 0; i < len(parts)-1; i++ {
		ring := make(orb.Ring, 0, parts[i+1]-parts[i])
		for _, pt := range p.Points[parts[i]:parts[i+1]] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}

		if isClockwise(ring) || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
		} else {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
		}
	}
	return mp
}

// isClockwise uses the signed shoelace area; shapefile outer rings wind
// clockwise.
func isClockwise(r orb.Ring) bool {
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += (r[i+1][0] - r[i][0]) * (r[i+1][1] + r[i][1])
	}
	return sum > 0
}
