// Package ingest runs the fetch → normalize → upsert cycle for a single
// location. It is the shared ingestion path behind the periodic sync.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"foodfindr/internal/logging"
	"foodfindr/internal/model"
	"foodfindr/internal/monitoring"
	"foodfindr/internal/places"
	"foodfindr/internal/store"
)

// EventRestaurantIngested is published (best effort) for every restaurant
// a sync cycle creates.
const EventRestaurantIngested = "EVENT_RESTAURANT_INGESTED"

// Gateway is the slice of the places client the worker needs.
type Gateway interface {
	FindNear(ctx context.Context, q places.Query) ([]places.RawPlace, error)
}

// Worker ingests upstream places data for one location at a time.
type Worker struct {
	store   store.Store
	gateway Gateway
	rdb     *redis.Client // optional; nil disables event publication
}

// NewWorker constructs a Worker. rdb may be nil.
func NewWorker(st store.Store, gw Gateway, rdb *redis.Client) *Worker {
	return &Worker{store: st, gateway: gw, rdb: rdb}
}

// SyncLocation fetches up to maxResults places within radiusMeters of the
// location and upserts each valid candidate, accumulating counters.
// Individual candidate failures are logged and counted as skipped; only a
// rejected gateway call fails the whole location.
func (w *Worker) SyncLocation(ctx context.Context, loc model.SyncLocation, radiusMeters, maxResults int) (model.LocationSyncResult, error) {
	result := model.LocationSyncResult{Location: loc.Name}

	raws, err := w.gateway.FindNear(ctx, places.Query{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Radius:    &radiusMeters,
		Limit:     maxResults,
	})
	if err != nil {
		return result, fmt.Errorf("sync %s: %w", loc.Name, err)
	}
	result.Fetched = len(raws)

	for _, raw := range raws {
		candidate, ok := places.Normalize(raw)
		if !ok {
			result.Skipped++
			continue
		}

		stored, created, err := w.store.Upsert(ctx, candidate)
		if err != nil {
			monitoring.CandidatePersistFailures.Inc()
			logging.Warn("sync candidate dropped", logrus.Fields{
				"location": loc.Name,
				"place_id": candidate.PlaceID,
				"error":    err.Error(),
			})
			result.Skipped++
			continue
		}

		if created {
			result.Created++
			monitoring.RestaurantsCreated.Inc()
			w.publishIngested(ctx, stored)
		} else {
			result.Updated++
			monitoring.RestaurantsUpdated.Inc()
		}
	}

	logging.Info("location sync complete", logrus.Fields{
		"location": loc.Name,
		"fetched":  result.Fetched,
		"created":  result.Created,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func (w *Worker) publishIngested(ctx context.Context, r *model.Restaurant) {
	if w.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]any{
		"type":          EventRestaurantIngested,
		"restaurant_id": r.ID,
		"place_id":      r.PlaceID,
	})
	if err := w.rdb.Publish(ctx, EventRestaurantIngested, event).Err(); err != nil {
		logging.Warn("publish ingest event failed", logrus.Fields{"error": err.Error()})
	}
}
