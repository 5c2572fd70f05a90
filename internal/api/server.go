// Package api exposes the read endpoints consumed by the web layer: the
// city-scoped neighborhood collection and the ranking leaderboard.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/cities"
	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/ranking"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

// Server serves the read API over already-persisted state. Ranking runs
// in-memory per request; it is cheap relative to the offline jobs.
type Server struct {
	store    store.Store
	registry *cities.Registry
	engine   *ranking.Engine
	log      *zap.Logger
}

// NewServer wires the handlers.
func NewServer(st store.Store, registry *cities.Registry, engine *ranking.Engine) *Server {
	return &Server{
		store:    st,
		registry: registry,
		engine:   engine,
		log:      zap.L().With(zap.String("component", "api.server")),
	}
}

// Router builds the chi router with CORS open for browser clients.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/neighborhoods", s.handleNeighborhoods)
		r.Get("/cities/{key}/ranking", s.handleRanking)
	})
	return r
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// neighborhoodRecord is one row of the collection endpoint. Stats default to
// zero when the neighborhood has not been aggregated yet.
type neighborhoodRecord struct {
	ID              int64             `json:"id"`
	GeoID           string            `json:"geoid"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	City            string            `json:"city"`
	County          string            `json:"county,omitempty"`
	State           string            `json:"state,omitempty"`
	Population      *int              `json:"population"`
	AreaSqKm        float64           `json:"area_sq_km"`
	Centroid        [2]float64        `json:"centroid"` // lon, lat
	Geometry        *geojson.Geometry `json:"geometry,omitempty"`
	RestaurantCount int               `json:"restaurant_count"`
	CafeCount       int               `json:"cafe_count"`
	BarCount        int               `json:"bar_count"`
	TotalAmenities  int               `json:"total_amenities"`
	VibrancyIndex   float64           `json:"vibrancy_index"`
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	cityKey := r.URL.Query().Get("city")
	if cityKey == "" {
		writeError(w, http.StatusBadRequest, "city query parameter is required")
		return
	}

	city, err := s.registry.Get(cityKey)
	if err != nil {
		if model.IsConfiguration(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.internalError(w, err)
		return
	}

	withStats, err := s.store.ListWithStatsByCity(r.Context(), city.CityName())
	if err != nil {
		s.internalError(w, err)
		return
	}

	includeGeometry, _ := strconv.ParseBool(r.URL.Query().Get("include_geometry"))

	records := make([]neighborhoodRecord, 0, len(withStats))
	for _, item := range withStats {
		records = append(records, toRecord(item, includeGeometry))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"city":          city.CityName(),
		"count":         len(records),
		"neighborhoods": records,
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	city, err := s.registry.Get(key)
	if err != nil {
		if model.IsConfiguration(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.internalError(w, err)
		return
	}

	withStats, err := s.store.ListWithStatsByCity(r.Context(), city.CityName())
	if err != nil {
		s.internalError(w, err)
		return
	}

	entries := make([]ranking.Entry, 0, len(withStats))
	ids := make([]int64, 0, len(withStats))
	for _, item := range withStats {
		entries = append(entries, ranking.Entry{
			Neighborhood: item.Neighborhood,
			Stat:         item.Stat,
		})
		ids = append(ids, item.Neighborhood.ID)
	}

	placesByID, err := s.store.TopPlaces(r.Context(), ids)
	if err != nil {
		s.internalError(w, err)
		return
	}

	leaderboard := s.engine.Rank(city.CityName(), city.State, entries, placesByID)
	writeJSON(w, http.StatusOK, leaderboard)
}

func toRecord(item store.NeighborhoodWithStat, includeGeometry bool) neighborhoodRecord {
	n := item.Neighborhood
	rec := neighborhoodRecord{
		ID:         n.ID,
		GeoID:      n.GeoID,
		Name:       n.Name,
		Slug:       n.Slug,
		City:       n.City,
		County:     n.County,
		State:      n.State,
		Population: n.Population,
		AreaSqKm:   n.AreaSqKm,
		Centroid:   [2]float64{n.Centroid[0], n.Centroid[1]},
	}
	if includeGeometry {
		rec.Geometry = geojson.NewGeometry(n.Boundary)
	}
	if item.Stat != nil {
		rec.RestaurantCount = item.Stat.RestaurantCount
		rec.CafeCount = item.Stat.CafeCount
		rec.BarCount = item.Stat.BarCount
		rec.TotalAmenities = item.Stat.TotalAmenities
		rec.VibrancyIndex = item.Stat.VibrancyIndex
	}
	return rec
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
