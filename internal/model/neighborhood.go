// Package model defines the core domain types shared across the pipeline.
package model

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
)

// Neighborhood is a canonical imported boundary record. Created once by the
// boundary importer; scoring and ranking never mutate it.
type Neighborhood struct {
	ID         int64            `json:"id"`
	GeoID      string           `json:"geoid"`
	Name       string           `json:"name"`
	Slug       string           `json:"slug"`
	City       string           `json:"city"`
	County     string           `json:"county,omitempty"`
	State      string           `json:"state,omitempty"`
	Country    string           `json:"country,omitempty"`
	Continent  string           `json:"continent,omitempty"`
	Population *int             `json:"population,omitempty"`
	AreaSqKm   float64          `json:"area_sq_km"`
	Boundary   orb.MultiPolygon `json:"-"`
	Centroid   orb.Point        `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Place is a single point of interest inside a neighborhood. Place rows are a
// derived cache: every re-aggregation fully replaces them.
type Place struct {
	ID             int64           `json:"id"`
	NeighborhoodID int64           `json:"neighborhood_id"`
	Name           string          `json:"name"`
	Category       Category        `json:"category"`
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	Address        string          `json:"address,omitempty"`
	Tags           json.RawMessage `json:"tags,omitempty"`
}

// PlaceStat is the one-to-one amenity aggregate per neighborhood.
// total_amenities is the source of truth; re-summing the per-category counts
// is a consistency check, not a fallback.
type PlaceStat struct {
	NeighborhoodID    int64     `json:"neighborhood_id"`
	RestaurantCount   int       `json:"restaurant_count"`
	CafeCount         int       `json:"cafe_count"`
	BarCount          int       `json:"bar_count"`
	TotalAmenities    int       `json:"total_amenities"`
	RestaurantDensity float64   `json:"restaurant_density"`
	CafeDensity       float64   `json:"cafe_density"`
	BarDensity        float64   `json:"bar_density"`
	VibrancyIndex     float64   `json:"vibrancy_index"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Counts returns the per-category count map used by the vibrancy scorer.
func (s PlaceStat) Counts() map[Category]int {
	return map[Category]int{
		CategoryRestaurant: s.RestaurantCount,
		CategoryCafe:       s.CafeCount,
		CategoryBar:        s.BarCount,
	}
}

// Density returns the stored density for a category.
func (s PlaceStat) Density(c Category) float64 {
	switch c {
	case CategoryRestaurant:
		return s.RestaurantDensity
	case CategoryCafe:
		return s.CafeDensity
	case CategoryBar:
		return s.BarDensity
	default:
		return 0
	}
}
