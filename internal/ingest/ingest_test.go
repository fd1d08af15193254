package ingest_test

import (
	"context"
	"errors"
	"testing"

	"foodfindr/internal/ingest"
	"foodfindr/internal/model"
	"foodfindr/internal/places"
	"foodfindr/internal/store"
)

type fakeStore struct {
	byPlaceID map[string]*model.Restaurant
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byPlaceID: make(map[string]*model.Restaurant)}
}

func (f *fakeStore) Upsert(ctx context.Context, r *model.Restaurant) (*model.Restaurant, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	_, exists := f.byPlaceID[r.PlaceID]
	stored := *r
	f.byPlaceID[r.PlaceID] = &stored
	return &stored, !exists, nil
}

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindByPlaceID(ctx context.Context, placeID string) (*model.Restaurant, error) {
	if r, ok := f.byPlaceID[placeID]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Search(ctx context.Context, c model.SearchCriteria) ([]model.Restaurant, error) {
	return nil, nil
}

func (f *fakeStore) DietaryCounts(ctx context.Context) (model.DietaryCounts, error) {
	return model.DietaryCounts{}, nil
}

func (f *fakeStore) CreateReview(ctx context.Context, rev *model.Review) (*model.Review, error) {
	return rev, nil
}

func (f *fakeStore) ReviewsByRestaurant(ctx context.Context, restaurantID int64, limit int) ([]model.Review, error) {
	return nil, nil
}

func (f *fakeStore) SaveInsights(ctx context.Context, restaurantID int64, ins *model.Insights) error {
	return nil
}

type fakeGateway struct {
	results []places.RawPlace
	err     error
}

func (f *fakeGateway) FindNear(ctx context.Context, q places.Query) ([]places.RawPlace, error) {
	return f.results, f.err
}

func raw(fsqID, name string) places.RawPlace {
	return places.RawPlace{
		FsqID:    fsqID,
		Name:     name,
		Geocodes: places.RawGeocodes{Main: &places.RawPoint{Latitude: 40.7, Longitude: -74.0}},
	}
}

var testLocation = model.SyncLocation{Name: "New York", Latitude: 40.7128, Longitude: -74.0060}

func TestSyncLocation_CreatesAndUpdates(t *testing.T) {
	fs := newFakeStore()
	gw := &fakeGateway{results: []places.RawPlace{raw("a", "A"), raw("b", "B")}}
	w := ingest.NewWorker(fs, gw, nil)

	result, err := w.SyncLocation(context.Background(), testLocation, 5000, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fetched != 2 || result.Created != 2 || result.Updated != 0 {
		t.Errorf("first sync = %+v, want fetched=2 created=2", result)
	}

	// Everything already exists on the second pass.
	result, err = w.SyncLocation(context.Background(), testLocation, 5000, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 0 || result.Updated != 2 {
		t.Errorf("second sync = %+v, want created=0 updated=2", result)
	}
}

func TestSyncLocation_SkipsInvalidCandidates(t *testing.T) {
	fs := newFakeStore()
	gw := &fakeGateway{results: []places.RawPlace{
		raw("good", "Good Place"),
		{FsqID: "bad", Name: "No Coordinates"},
	}}
	w := ingest.NewWorker(fs, gw, nil)

	result, err := w.SyncLocation(context.Background(), testLocation, 5000, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want created=1 skipped=1", result)
	}
	if _, exists := fs.byPlaceID["bad"]; exists {
		t.Error("invalid candidate must never be stored")
	}
}

func TestSyncLocation_PerCandidateFailureCountsAsSkipped(t *testing.T) {
	fs := newFakeStore()
	fs.upsertErr = errors.New("constraint violation")
	gw := &fakeGateway{results: []places.RawPlace{raw("x", "X")}}
	w := ingest.NewWorker(fs, gw, nil)

	result, err := w.SyncLocation(context.Background(), testLocation, 5000, 50)
	if err != nil {
		t.Fatalf("per-candidate failures must not fail the location: %v", err)
	}
	if result.Skipped != 1 || result.Created != 0 {
		t.Errorf("result = %+v, want skipped=1", result)
	}
}

func TestSyncLocation_GatewayRejectionFailsLocation(t *testing.T) {
	fs := newFakeStore()
	gw := &fakeGateway{err: &places.ValidationError{Msg: "radius must be between 0 and 100000 meters"}}
	w := ingest.NewWorker(fs, gw, nil)

	if _, err := w.SyncLocation(context.Background(), testLocation, 5000, 50); err == nil {
		t.Error("a rejected gateway call should fail the location")
	}
}
