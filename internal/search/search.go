// Package search implements the composite search: local filtered query,
// distance post-filter, upstream backfill when local results run thin, and
// rating-ranked merging.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"foodfindr/internal/geo"
	"foodfindr/internal/logging"
	"foodfindr/internal/model"
	"foodfindr/internal/monitoring"
	"foodfindr/internal/places"
	"foodfindr/internal/store"
)

// backfillThreshold is the local result count below which the orchestrator
// supplements from the places gateway. Tunable; historical deployments have
// run it at 5 and at 10.
const backfillThreshold = 5

// backfillFetchLimit is how many candidates one backfill requests upstream.
const backfillFetchLimit = 50

// EventRestaurantIngested is published (best effort) for every restaurant
// the backfill creates.
const EventRestaurantIngested = "EVENT_RESTAURANT_INGESTED"

// Gateway is the slice of the places client the orchestrator needs.
type Gateway interface {
	FindNear(ctx context.Context, q places.Query) ([]places.RawPlace, error)
}

// Result is a restaurant annotated with its distance from the search center,
// when one was supplied.
type Result struct {
	model.Restaurant
	DistanceKM *float64 `json:"distance_km,omitempty"`
}

// Orchestrator wires the store and gateway into the composite search.
type Orchestrator struct {
	store   store.Store
	gateway Gateway
	rdb     *redis.Client // optional; nil disables event publication
}

// NewOrchestrator returns a configured Orchestrator. rdb may be nil.
func NewOrchestrator(st store.Store, gw Gateway, rdb *redis.Client) *Orchestrator {
	return &Orchestrator{store: st, gateway: gw, rdb: rdb}
}

// Search runs the full pipeline and returns results ranked by rating,
// descending, with missing ratings ordered last.
//
// A failure of the primary local read aborts the whole search. Failures
// while persisting individual backfill candidates are logged, counted, and
// skipped — the search degrades to whatever it has accumulated.
func (o *Orchestrator) Search(ctx context.Context, c model.SearchCriteria) ([]Result, error) {
	local, err := o.store.Search(ctx, c)
	if err != nil {
		logging.Error("primary restaurant query failed", logrus.Fields{"error": err.Error()})
		return nil, fmt.Errorf("restaurant search: %w", err)
	}

	results := annotate(local, c)
	if c.HasCenter() && c.MaxDistanceKM != nil {
		results = filterByDistance(results, *c.MaxDistanceKM)
	}

	if len(results) < backfillThreshold && c.HasCenter() {
		results = o.backfill(ctx, c, results)
	}

	results = enforceBounds(results, c)

	// Descending by rating; nil orders as 0. SliceStable keeps ties in
	// their accumulated order.
	sort.SliceStable(results, func(i, j int) bool {
		return ratingOf(results[i]) > ratingOf(results[j])
	})

	return results, nil
}

// backfill fetches candidates from the gateway, persists the unseen ones,
// and merges everything into results, deduplicated by place id.
func (o *Orchestrator) backfill(ctx context.Context, c model.SearchCriteria, results []Result) []Result {
	monitoring.BackfillRuns.Inc()

	raws, err := o.gateway.FindNear(ctx, places.Query{
		Latitude:  *c.Latitude,
		Longitude: *c.Longitude,
		Text:      c.Query,
		Limit:     backfillFetchLimit,
	})
	if err != nil {
		// Only parameter validation can error here, and backfill
		// parameters are fixed; treat it like an upstream outage.
		logging.Warn("backfill gateway call rejected", logrus.Fields{"error": err.Error()})
		return results
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.PlaceID] = true
	}

	for _, raw := range raws {
		candidate, ok := places.Normalize(raw)
		if !ok {
			continue
		}
		if seen[candidate.PlaceID] {
			continue
		}

		stored, created, err := o.persistCandidate(ctx, candidate)
		if err != nil {
			monitoring.CandidatePersistFailures.Inc()
			logging.Warn("backfill candidate dropped", logrus.Fields{
				"place_id": candidate.PlaceID,
				"error":    err.Error(),
			})
			continue
		}
		if created {
			monitoring.RestaurantsCreated.Inc()
			o.publishIngested(ctx, stored)
		}

		seen[stored.PlaceID] = true
		results = append(results, annotateOne(*stored, c))
	}

	return results
}

// persistCandidate reuses an already-stored record for the candidate's place
// id, or upserts a fresh one.
func (o *Orchestrator) persistCandidate(ctx context.Context, candidate *model.Restaurant) (*model.Restaurant, bool, error) {
	existing, err := o.store.FindByPlaceID(ctx, candidate.PlaceID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	return o.store.Upsert(ctx, candidate)
}

func (o *Orchestrator) publishIngested(ctx context.Context, r *model.Restaurant) {
	if o.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]any{
		"type":          EventRestaurantIngested,
		"restaurant_id": r.ID,
		"place_id":      r.PlaceID,
	})
	if err := o.rdb.Publish(ctx, EventRestaurantIngested, event).Err(); err != nil {
		logging.Warn("publish ingest event failed", logrus.Fields{"error": err.Error()})
	}
}

// annotate attaches distances from the search center when one is present.
func annotate(restaurants []model.Restaurant, c model.SearchCriteria) []Result {
	results := make([]Result, 0, len(restaurants))
	for _, r := range restaurants {
		results = append(results, annotateOne(r, c))
	}
	return results
}

func annotateOne(r model.Restaurant, c model.SearchCriteria) Result {
	res := Result{Restaurant: r}
	if c.HasCenter() && r.Latitude != nil && r.Longitude != nil {
		d := geo.Distance(*c.Latitude, *c.Longitude, *r.Latitude, *r.Longitude)
		res.DistanceKM = &d
	}
	return res
}

// filterByDistance keeps results within maxKM of the center. Records with
// missing coordinates carry no distance and are dropped.
func filterByDistance(results []Result, maxKM float64) []Result {
	kept := results[:0]
	for _, r := range results {
		if r.DistanceKM != nil && *r.DistanceKM <= maxKM {
			kept = append(kept, r)
		}
	}
	return kept
}

// enforceBounds re-applies the rating floor and price ceiling to the merged
// set. A record missing the constrained attribute is excluded while that
// constraint is active.
func enforceBounds(results []Result, c model.SearchCriteria) []Result {
	if c.MinRating == nil && c.MaxPrice == nil {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if c.MinRating != nil && (r.Rating == nil || *r.Rating < *c.MinRating) {
			continue
		}
		if c.MaxPrice != nil && (r.Price == nil || *r.Price > *c.MaxPrice) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func ratingOf(r Result) float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}
