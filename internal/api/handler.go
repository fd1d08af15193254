// Package api implements the HTTP handlers for the food-findr backend.
//
// Routes:
//
//	GET  /api/restaurants/search          → composite criteria search
//	GET  /api/restaurants/nearby          → distance-sorted proximity search
//	GET  /api/restaurants/dietary-trends  → store-wide dietary percentages
//	GET  /api/restaurants/filter-options  → static filter metadata
//	GET  /api/restaurants/insights/{id}   → generate + return review insights
//	GET  /api/restaurants/{id}            → detail with recent reviews
//	POST /api/restaurants/{id}/reviews    → create a review
//	GET  /health                          → liveness probe
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"foodfindr/internal/diet"
	"foodfindr/internal/insights"
	"foodfindr/internal/logging"
	"foodfindr/internal/model"
	"foodfindr/internal/places"
	"foodfindr/internal/search"
	"foodfindr/internal/sentiment"
	"foodfindr/internal/store"
)

// defaultNearbyRadiusKM bounds a nearby search when the caller gives none.
const defaultNearbyRadiusKM = 5.0

// recentReviewLimit is how many reviews the detail endpoint embeds.
const recentReviewLimit = 10

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	orchestrator *search.Orchestrator
	engine       *insights.Engine
	store        store.Store
}

// NewHandler returns a configured Handler.
func NewHandler(o *search.Orchestrator, e *insights.Engine, st store.Store) *Handler {
	return &Handler{orchestrator: o, engine: e, store: st}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/restaurants/search", h.handleSearch)
	mux.HandleFunc("/api/restaurants/nearby", h.handleNearby)
	mux.HandleFunc("/api/restaurants/dietary-trends", h.handleDietaryTrends)
	mux.HandleFunc("/api/restaurants/filter-options", h.handleFilterOptions)
	mux.HandleFunc("/api/restaurants/insights/", h.handleInsights)
	mux.HandleFunc("/api/restaurants/", h.handleRestaurant)
	mux.HandleFunc("/health", h.handleHealth)
}

// ─── Search ──────────────────────────────────────────────────────────────────

// handleSearch handles GET /api/restaurants/search
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.orchestrator.Search(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}

	jsonOK(w, map[string]any{
		"count":       len(results),
		"restaurants": results,
	})
}

// handleNearby handles GET /api/restaurants/nearby. It is the search pipeline
// with a mandatory center, ordered by distance instead of rating.
func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !criteria.HasCenter() {
		jsonError(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}
	if criteria.MaxDistanceKM == nil {
		radius := defaultNearbyRadiusKM
		criteria.MaxDistanceKM = &radius
	}

	results, err := h.orchestrator.Search(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, "nearby", err)
		return
	}

	sort.SliceStable(results, func(i, j int) bool {
		return distanceOf(results[i]) < distanceOf(results[j])
	})

	jsonOK(w, map[string]any{
		"count":       len(results),
		"restaurants": results,
	})
}

// ─── Restaurant detail + reviews ─────────────────────────────────────────────

// handleRestaurant dispatches /api/restaurants/{id} and
// /api/restaurants/{id}/reviews.
func (h *Handler) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 3: // api/restaurants/{id}
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := parseID(parts[2])
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.getRestaurant(w, r, id)

	case len(parts) == 4 && parts[3] == "reviews":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := parseID(parts[2])
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.createReview(w, r, id)

	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request, id int64) {
	restaurant, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "getRestaurant", err)
		return
	}

	reviews, err := h.store.ReviewsByRestaurant(r.Context(), id, recentReviewLimit)
	if err != nil {
		h.fail(w, r, "getRestaurant reviews", err)
		return
	}

	jsonOK(w, map[string]any{
		"restaurant": restaurant,
		"reviews":    reviews,
	})
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Text   string   `json:"text"`
		Rating *float64 `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		jsonError(w, "body must contain text", http.StatusBadRequest)
		return
	}
	if body.Rating != nil && (*body.Rating < 0 || *body.Rating > 5) {
		jsonError(w, "rating must be between 0 and 5", http.StatusBadRequest)
		return
	}

	if _, err := h.store.FindByID(r.Context(), id); err != nil {
		h.fail(w, r, "createReview lookup", err)
		return
	}

	// Sentiment and dietary keywords are fixed at write time; the insights
	// engine recomputes aggregates from them later.
	review := &model.Review{
		RestaurantID:    id,
		Text:            body.Text,
		Rating:          body.Rating,
		Sentiment:       sentiment.Classify(sentiment.Polarity(body.Text)),
		DietaryKeywords: keywordCounts(body.Text),
	}

	created, err := h.store.CreateReview(r.Context(), review)
	if err != nil {
		h.fail(w, r, "createReview", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ─── Insights + aggregates ───────────────────────────────────────────────────

// handleInsights handles GET /api/restaurants/insights/{id}
func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id, err := parseID(parts[3])
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ins, err := h.engine.Generate(r.Context(), id)
	if err != nil {
		h.fail(w, r, "insights", err)
		return
	}

	jsonOK(w, ins)
}

// handleDietaryTrends handles GET /api/restaurants/dietary-trends
func (h *Handler) handleDietaryTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.store.DietaryCounts(r.Context())
	if err != nil {
		h.fail(w, r, "dietaryTrends", err)
		return
	}

	jsonOK(w, map[string]any{
		"total_restaurants": counts.Total,
		"percentages":       insights.TrendsFromCounts(counts),
	})
}

// handleFilterOptions handles GET /api/restaurants/filter-options
func (h *Handler) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jsonOK(w, map[string]any{
		"dietary_restrictions": diet.All,
		"price_levels":         []int{1, 2, 3, 4},
		"rating_range":         map[string]float64{"min": 0, "max": 10},
		"default_radius_km":    defaultNearbyRadiusKM,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

// ─── Error mapping ───────────────────────────────────────────────────────────

// fail translates domain errors into HTTP responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *places.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "restaurant not found", http.StatusNotFound)
	default:
		logging.Error("request failed", logrus.Fields{
			"op":    op,
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

// ─── Parsing helpers ─────────────────────────────────────────────────────────

// parseCriteria reads the shared search query parameters. Absent parameters
// stay nil; malformed ones reject the request.
func parseCriteria(r *http.Request) (model.SearchCriteria, error) {
	q := r.URL.Query()
	var c model.SearchCriteria

	var err error
	if c.Latitude, err = floatParam(q.Get("latitude"), "latitude"); err != nil {
		return c, err
	}
	if c.Longitude, err = floatParam(q.Get("longitude"), "longitude"); err != nil {
		return c, err
	}
	if c.MaxDistanceKM, err = floatParam(q.Get("radius_km"), "radius_km"); err != nil {
		return c, err
	}
	if c.MinRating, err = floatParam(q.Get("min_rating"), "min_rating"); err != nil {
		return c, err
	}

	if s := q.Get("max_price"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return c, fmt.Errorf("max_price must be an integer, got %q", s)
		}
		c.MaxPrice = &v
	}

	if s := q.Get("dietary"); s != "" {
		for _, name := range strings.Split(s, ",") {
			name = strings.TrimSpace(strings.ToLower(name))
			if name == "" {
				continue
			}
			if !diet.Known(name) {
				return c, fmt.Errorf("unknown dietary restriction %q", name)
			}
			c.DietaryRestrictions = append(c.DietaryRestrictions, name)
		}
	}

	c.Query = strings.TrimSpace(q.Get("query"))

	if (c.Latitude == nil) != (c.Longitude == nil) {
		return c, fmt.Errorf("latitude and longitude must be supplied together")
	}

	return c, nil
}

func floatParam(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return &v, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid restaurant id %q", s)
	}
	return id, nil
}

// keywordCounts marks which dietary vocabularies a review text touches.
func keywordCounts(text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int)
	for _, name := range diet.All {
		if diet.Mentions(lower, name) {
			counts[name] = 1
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

func distanceOf(r search.Result) float64 {
	if r.DistanceKM == nil {
		return 0
	}
	return *r.DistanceKM
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
