// Package store is the persistence boundary for restaurants and reviews.
// Entities stay plain data; all query and upsert logic lives behind the
// Store interface so business logic can be tested without a live database.
package store

import (
	"context"
	"errors"

	"foodfindr/internal/model"
)

// ErrNotFound is returned when a referenced restaurant id does not resolve.
var ErrNotFound = errors.New("restaurant not found")

// Store is the persistence contract consumed by search, insights, and
// ingestion. The postgres implementation is the only production one; tests
// supply in-memory fakes.
type Store interface {
	// Upsert inserts r keyed by its place id, or overwrites the stored
	// attributes in place when the id already exists. It must tolerate a
	// concurrent insert of the same place id by falling back to an update.
	Upsert(ctx context.Context, r *model.Restaurant) (*model.Restaurant, bool, error)

	// FindByID returns ErrNotFound when id does not resolve.
	FindByID(ctx context.Context, id int64) (*model.Restaurant, error)

	// FindByPlaceID returns ErrNotFound when no record carries placeID.
	FindByPlaceID(ctx context.Context, placeID string) (*model.Restaurant, error)

	// Search returns all records matching every present criteria field.
	// Absent fields impose no constraint. Dietary restrictions are ANDed.
	Search(ctx context.Context, c model.SearchCriteria) ([]model.Restaurant, error)

	// DietaryCounts returns the full-scan dietary flag aggregate.
	DietaryCounts(ctx context.Context) (model.DietaryCounts, error)

	// CreateReview stores an immutable review for a restaurant.
	CreateReview(ctx context.Context, rev *model.Review) (*model.Review, error)

	// ReviewsByRestaurant returns reviews newest first. limit <= 0 means
	// all reviews.
	ReviewsByRestaurant(ctx context.Context, restaurantID int64, limit int) ([]model.Review, error)

	// SaveInsights persists derived analytics onto the restaurant record.
	SaveInsights(ctx context.Context, restaurantID int64, ins *model.Insights) error
}
