// Package boundary orchestrates the import of neighborhood boundaries from
// per-city provider strategies into canonical records.
package boundary

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/tripheatmap/neighborhood-cli/internal/cities"
)

// RawFeature is one boundary feature as a provider delivered it, before
// normalization. ExternalID is already namespaced by the source so it can be
// used directly as the geoid.
type RawFeature struct {
	Name       string
	ExternalID string
	Geometry   orb.Geometry
	Props      map[string]any
}

// Source fetches raw boundary features for a city. Provider-specific
// filtering (name match, bounding box, administrative codes) is the source's
// responsibility.
type Source interface {
	Name() string
	Fetch(ctx context.Context, city cities.City) ([]RawFeature, error)
}
