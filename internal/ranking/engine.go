// Package ranking turns scored neighborhoods into the consumer-facing
// leaderboard: percentile thresholds, categorical tags, ranked cards with
// venue highlights. Nothing here persists; the leaderboard is recomputed from
// current store state on each request.
package ranking

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
)

// tractName matches unenriched raw administrative units whose generic census
// placeholder name was never replaced with a real place name.
var tractName = regexp.MustCompile(`(?i)\bTract\b`)

// Entry pairs a neighborhood with its aggregate; Stat is nil when the
// neighborhood was never scored.
type Entry struct {
	Neighborhood model.Neighborhood
	Stat         *model.PlaceStat
}

// Highlight is one representative venue on a ranked card.
type Highlight struct {
	Name     string         `json:"name"`
	Category model.Category `json:"category"`
	Address  string         `json:"address,omitempty"`
}

// RankedCard is a single leaderboard row. Transient; built fresh per request.
type RankedCard struct {
	Rank           int               `json:"rank"`
	NeighborhoodID int64             `json:"neighborhood_id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	VibrancyScore  float64           `json:"vibrancy_score"`
	Tags           []string          `json:"tags"`
	Densities      map[string]string `json:"densities"`
	Counts         map[string]int    `json:"counts"`
	AreaSqKm       float64           `json:"area_sq_km"`
	Highlights     []Highlight       `json:"highlights"`
	Description    string            `json:"description"`
}

// FAQItem is one generated question/answer pair for the city page.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Leaderboard is the full ranking output for one city.
type Leaderboard struct {
	CityName           string       `json:"city_name"`
	State              string       `json:"state,omitempty"`
	TotalNeighborhoods int          `json:"total_neighborhoods"`
	Thresholds         Thresholds   `json:"-"`
	Cards              []RankedCard `json:"cards"`
	HeroHeading        string       `json:"hero_heading"`
	HeroSummary        string       `json:"hero_summary"`
	QuickSummary       []string     `json:"quick_summary"`
	FAQItems           []FAQItem    `json:"faq_items"`
}

// Engine builds leaderboards.
type Engine struct {
	topN int
}

// NewEngine creates a ranking engine; topN caps how many entries get full
// cards (the rest contribute to thresholds and counts only).
func NewEngine(topN int) *Engine {
	if topN <= 0 {
		topN = 30
	}
	return &Engine{topN: topN}
}

// Rank produces the leaderboard for one city. placesByID supplies candidate
// venues per neighborhood for highlight resolution (typically the store's
// top-3-per-neighborhood window query).
func (e *Engine) Rank(cityName, state string, entries []Entry, placesByID map[int64][]model.Place) *Leaderboard {
	qualified := qualify(entries)

	lb := &Leaderboard{
		CityName:           cityName,
		State:              state,
		TotalNeighborhoods: len(qualified),
	}
	if len(qualified) == 0 {
		return lb
	}

	// Deterministic total order: vibrancy descending, name ascending.
	sort.SliceStable(qualified, func(i, j int) bool {
		a, b := qualified[i], qualified[j]
		if a.Stat.VibrancyIndex != b.Stat.VibrancyIndex {
			return a.Stat.VibrancyIndex > b.Stat.VibrancyIndex
		}
		return a.Neighborhood.Name < b.Neighborhood.Name
	})

	lb.Thresholds = e.thresholds(qualified)

	top := qualified
	if len(top) > e.topN {
		top = top[:e.topN]
	}

	lb.Cards = make([]RankedCard, len(top))
	for i, entry := range top {
		lb.Cards[i] = e.buildCard(i+1, entry, placesByID[entry.Neighborhood.ID], lb.Thresholds)
	}

	lb.HeroHeading = fmt.Sprintf("Where to Stay in %s – Ranking of the Best Neighborhoods", displayCity(cityName, state))
	lb.HeroSummary = fmt.Sprintf(
		"We analyzed %d neighborhoods in %s, using vibrancy, restaurant/bar/café density per km², and real venue data to surface the best places to visit or stay.",
		lb.TotalNeighborhoods, titleCase(cityName),
	)
	lb.QuickSummary = quickSummary(lb.Cards)
	lb.FAQItems = e.faqItems(cityName, qualified, lb.Cards)

	return lb
}

// qualify drops raw administrative placeholders and anything never scored,
// and flags stored totals that disagree with the per-category counts.
func qualify(entries []Entry) []Entry {
	var out []Entry
	for _, entry := range entries {
		if entry.Stat == nil {
			continue
		}
		if tractName.MatchString(entry.Neighborhood.Name) {
			continue
		}

		// The stored aggregate is the source of truth; re-summing is only a
		// consistency check.
		recomputed := entry.Stat.RestaurantCount + entry.Stat.CafeCount + entry.Stat.BarCount
		if entry.Stat.TotalAmenities != recomputed {
			zap.L().Warn("stored total_amenities disagrees with category counts",
				zap.Int64("neighborhood_id", entry.Neighborhood.ID),
				zap.Int("stored", entry.Stat.TotalAmenities),
				zap.Int("recomputed", recomputed),
			)
		}

		out = append(out, entry)
	}
	return out
}

// thresholds computes the tag cutoffs over every qualifying neighborhood, not
// just the displayed top slice.
func (e *Engine) thresholds(qualified []Entry) Thresholds {
	vib := make([]float64, len(qualified))
	rest := make([]float64, len(qualified))
	cafe := make([]float64, len(qualified))
	bar := make([]float64, len(qualified))
	for i, entry := range qualified {
		vib[i] = entry.Stat.VibrancyIndex
		rest[i] = entry.Stat.RestaurantDensity
		cafe[i] = entry.Stat.CafeDensity
		bar[i] = entry.Stat.BarDensity
	}

	var th Thresholds
	if v, ok := Percentile(vib, 0.75); ok {
		th.Vibrancy = &v
	}
	if v, ok := Percentile(rest, 0.8); ok {
		th.Restaurant = &v
	}
	if v, ok := Percentile(cafe, 0.75); ok {
		th.Cafe = &v
	}
	if v, ok := Percentile(bar, 0.75); ok {
		th.Bar = &v
	}
	return th
}

func (e *Engine) buildCard(rank int, entry Entry, places []model.Place, th Thresholds) RankedCard {
	n := entry.Neighborhood
	s := entry.Stat

	return RankedCard{
		Rank:           rank,
		NeighborhoodID: n.ID,
		Name:           n.Name,
		Slug:           n.Slug,
		VibrancyScore:  s.VibrancyIndex,
		Tags:           AssignTags(s.VibrancyIndex, *s, th),
		Densities: map[string]string{
			"restaurants_per_sq_km": formatDensity(s.RestaurantDensity),
			"cafes_per_sq_km":       formatDensity(s.CafeDensity),
			"bars_per_sq_km":        formatDensity(s.BarDensity),
		},
		Counts: map[string]int{
			"restaurants": s.RestaurantCount,
			"cafes":       s.CafeCount,
			"bars":        s.BarCount,
		},
		AreaSqKm:    n.AreaSqKm,
		Highlights:  buildHighlights(places),
		Description: buildDescription(n, s),
	}
}

// buildHighlights resolves up to three representative venues using the fixed
// category priority (restaurant, bar, cafe) with an alphabetical tie-break.
func buildHighlights(places []model.Place) []Highlight {
	sorted := make([]model.Place, len(places))
	copy(sorted, places)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := model.HighlightPriority(sorted[i].Category), model.HighlightPriority(sorted[j].Category)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	highlights := make([]Highlight, len(sorted))
	for i, p := range sorted {
		highlights[i] = Highlight{Name: p.Name, Category: p.Category, Address: p.Address}
	}
	return highlights
}

func buildDescription(n model.Neighborhood, s *model.PlaceStat) string {
	return fmt.Sprintf(
		"%s mixes %d restaurants, %d cafés, and %d bars packed into %.2f km², making it a reliable base for visitors chasing real energy.",
		n.Name, s.RestaurantCount, s.CafeCount, s.BarCount, n.AreaSqKm,
	)
}

func quickSummary(cards []RankedCard) []string {
	n := len(cards)
	if n > 3 {
		n = 3
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf("%s · %.1f / 10", cards[i].Name, cards[i].VibrancyScore)
	}
	return out
}

// faqItems generates the city page Q&A from the best neighborhood per metric.
func (e *Engine) faqItems(cityName string, qualified []Entry, cards []RankedCard) []FAQItem {
	if len(cards) == 0 {
		return nil
	}

	top := cards[0]
	items := []FAQItem{{
		Question: fmt.Sprintf("Where do first-time visitors usually stay in %s?", titleCase(cityName)),
		Answer: fmt.Sprintf(
			"Start with %s – it tops our %d-area leaderboard with a %.1f / 10 vibrancy index and immediate access to %d restaurants plus %d bars.",
			top.Name, len(qualified), top.VibrancyScore, top.Counts["restaurants"], top.Counts["bars"],
		),
	}}

	if best := maxBy(qualified, func(s *model.PlaceStat) float64 { return s.RestaurantDensity }); best != nil {
		items = append(items, FAQItem{
			Question: "Which neighborhood is best for food lovers?",
			Answer: fmt.Sprintf(
				"%s has %d restaurants along with %d total venues, so you can walk to dozens of spots within a few blocks of each other.",
				best.Neighborhood.Name, best.Stat.RestaurantCount, best.Stat.TotalAmenities,
			),
		})
	}
	if best := maxBy(qualified, func(s *model.PlaceStat) float64 { return s.BarDensity }); best != nil {
		items = append(items, FAQItem{
			Question: fmt.Sprintf("Where should I stay for nightlife in %s?", titleCase(cityName)),
			Answer: fmt.Sprintf(
				"%s edges out the rest of the city for nightlife, with %d bars and a %.1f / 10 vibrancy score that holds up into the late hours.",
				best.Neighborhood.Name, best.Stat.BarCount, best.Stat.VibrancyIndex,
			),
		})
	}
	if best := maxBy(qualified, func(s *model.PlaceStat) float64 { return s.CafeDensity }); best != nil {
		items = append(items, FAQItem{
			Question: "Is there a good base for remote workers?",
			Answer: fmt.Sprintf(
				"%s has %d cafés plus %d restaurants, so it's easy to plug in and work between adventures.",
				best.Neighborhood.Name, best.Stat.CafeCount, best.Stat.RestaurantCount,
			),
		})
	}

	return items
}

func maxBy(entries []Entry, metric func(*model.PlaceStat) float64) *Entry {
	var best *Entry
	for i := range entries {
		if best == nil || metric(entries[i].Stat) > metric(best.Stat) {
			best = &entries[i]
		}
	}
	return best
}

func formatDensity(v float64) string {
	if v > 0 {
		return fmt.Sprintf("%.1f", v)
	}
	return "0.0"
}

func displayCity(cityName, state string) string {
	name := titleCase(cityName)
	if state != "" {
		return name + ", " + state
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
