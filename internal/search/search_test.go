package search_test

import (
	"context"
	"errors"
	"testing"

	"foodfindr/internal/model"
	"foodfindr/internal/places"
	"foodfindr/internal/search"
	"foodfindr/internal/store"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeStore struct {
	byPlaceID map[string]*model.Restaurant
	local     []model.Restaurant
	searchErr error
	upsertErr error

	searchCalls int
	upsertCalls int
}

func newFakeStore(local ...model.Restaurant) *fakeStore {
	fs := &fakeStore{byPlaceID: make(map[string]*model.Restaurant), local: local}
	for idx := range local {
		r := local[idx]
		fs.byPlaceID[r.PlaceID] = &r
	}
	return fs
}

func (f *fakeStore) Search(ctx context.Context, c model.SearchCriteria) ([]model.Restaurant, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]model.Restaurant(nil), f.local...), nil
}

func (f *fakeStore) Upsert(ctx context.Context, r *model.Restaurant) (*model.Restaurant, bool, error) {
	f.upsertCalls++
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	created := false
	if _, ok := f.byPlaceID[r.PlaceID]; !ok {
		created = true
		r.ID = int64(len(f.byPlaceID) + 1)
	}
	stored := *r
	f.byPlaceID[r.PlaceID] = &stored
	return &stored, created, nil
}

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	for _, r := range f.byPlaceID {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindByPlaceID(ctx context.Context, placeID string) (*model.Restaurant, error) {
	if r, ok := f.byPlaceID[placeID]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
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
	calls   int
}

func (f *fakeGateway) FindNear(ctx context.Context, q places.Query) ([]places.RawPlace, error) {
	f.calls++
	return f.results, nil
}

// ── Helpers ────────────────────────────────────────────────────────────────

func localRestaurant(id int64, placeID string, rating float64, lat, lon float64) model.Restaurant {
	return model.Restaurant{
		ID: id, PlaceID: placeID, Name: placeID,
		Rating: f64(rating), Price: i(2),
		Latitude: f64(lat), Longitude: f64(lon),
	}
}

func rawCandidate(fsqID, name string, lat, lon float64) places.RawPlace {
	return places.RawPlace{
		FsqID:    fsqID,
		Name:     name,
		Geocodes: places.RawGeocodes{Main: &places.RawPoint{Latitude: lat, Longitude: lon}},
	}
}

func center() model.SearchCriteria {
	return model.SearchCriteria{Latitude: f64(40.7128), Longitude: f64(-74.0060)}
}

// ── Tests ──────────────────────────────────────────────────────────────────

func TestSearch_PrimaryReadFailureAborts(t *testing.T) {
	fs := newFakeStore()
	fs.searchErr = errors.New("connection refused")
	gw := &fakeGateway{}
	o := search.NewOrchestrator(fs, gw, nil)

	_, err := o.Search(context.Background(), center())
	if err == nil {
		t.Fatal("primary read failure must abort the search with an error")
	}
	if gw.calls != 0 {
		t.Error("no backfill should run after an aborted primary read")
	}
}

func TestSearch_NoBackfillWhenEnoughLocalResults(t *testing.T) {
	local := make([]model.Restaurant, 0, 5)
	for idx := 0; idx < 5; idx++ {
		local = append(local, localRestaurant(int64(idx+1), string(rune('a'+idx)), 4.0, 40.71, -74.0))
	}
	fs := newFakeStore(local...)
	gw := &fakeGateway{}
	o := search.NewOrchestrator(fs, gw, nil)

	results, err := o.Search(context.Background(), center())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway called %d times with %d local results, want 0", gw.calls, len(results))
	}
}

func TestSearch_BackfillTriggeredOnceAndIdempotent(t *testing.T) {
	fs := newFakeStore(localRestaurant(1, "existing", 4.5, 40.71, -74.0))
	gw := &fakeGateway{results: []places.RawPlace{
		rawCandidate("new-1", "Fresh Place", 40.72, -74.01),
		rawCandidate("new-2", "Second Place", 40.73, -74.02),
	}}
	o := search.NewOrchestrator(fs, gw, nil)

	results, err := o.Search(context.Background(), center())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want exactly 1", gw.calls)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 (1 local + 2 backfilled)", len(results))
	}
	if fs.upsertCalls != 2 {
		t.Errorf("upserts = %d, want 2", fs.upsertCalls)
	}

	// A second identical search finds both candidates already stored and
	// must not re-create them.
	fs.local = nil
	for _, r := range fs.byPlaceID {
		fs.local = append(fs.local, *r)
	}
	if _, err := o.Search(context.Background(), center()); err != nil {
		t.Fatalf("unexpected error on repeat search: %v", err)
	}
	if fs.upsertCalls != 2 {
		t.Errorf("repeat search re-created candidates: upserts = %d, want still 2", fs.upsertCalls)
	}
}

func TestSearch_CandidateWithoutCoordinatesNeverStored(t *testing.T) {
	fs := newFakeStore()
	gw := &fakeGateway{results: []places.RawPlace{
		{FsqID: "no-coords", Name: "Mystery Spot"},
		rawCandidate("ok", "Real Spot", 40.7, -74.0),
	}}
	o := search.NewOrchestrator(fs, gw, nil)

	results, err := o.Search(context.Background(), center())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].PlaceID != "ok" {
		t.Errorf("expected only the valid candidate, got %+v", results)
	}
	if _, exists := fs.byPlaceID["no-coords"]; exists {
		t.Error("a candidate without coordinates must never reach the store")
	}
}

func TestSearch_PerCandidateFailureDoesNotAbort(t *testing.T) {
	fs := newFakeStore()
	fs.upsertErr = errors.New("disk full")
	gw := &fakeGateway{results: []places.RawPlace{
		rawCandidate("doomed", "Doomed Diner", 40.7, -74.0),
	}}
	o := search.NewOrchestrator(fs, gw, nil)

	results, err := o.Search(context.Background(), center())
	if err != nil {
		t.Fatalf("per-candidate persist failures must not abort the search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("failed candidate should be dropped, got %+v", results)
	}
}

func TestSearch_ExistingRecordReusedNotRecreated(t *testing.T) {
	// "stale" is stored but not part of the local filtered result set.
	fs := newFakeStore()
	stale := localRestaurant(7, "stale", 2.0, 40.70, -74.0)
	fs.byPlaceID["stale"] = &stale
	gw := &fakeGateway{results: []places.RawPlace{
		rawCandidate("stale", "Stale But Known", 40.70, -74.0),
	}}
	o := search.NewOrchestrator(fs, gw, nil)

	results, err := o.Search(context.Background(), center())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.upsertCalls != 0 {
		t.Errorf("existing record must be reused, not upserted (upserts = %d)", fs.upsertCalls)
	}
	if len(results) != 1 || results[0].ID != 7 {
		t.Errorf("expected the stored record in results, got %+v", results)
	}
}

func TestSearch_DistanceFilterDropsFarAndCoordinateless(t *testing.T) {
	near := localRestaurant(1, "near", 4.0, 40.7138, -74.0070)
	far := localRestaurant(2, "far", 5.0, 41.8781, -87.6298) // Chicago
	noCoords := model.Restaurant{ID: 3, PlaceID: "nowhere", Name: "nowhere", Rating: f64(5.0)}

	// Enough padding to stay above the backfill threshold.
	padding := []model.Restaurant{
		localRestaurant(4, "p1", 3.0, 40.713, -74.006),
		localRestaurant(5, "p2", 3.0, 40.714, -74.005),
		localRestaurant(6, "p3", 3.0, 40.712, -74.007),
		localRestaurant(7, "p4", 3.0, 40.711, -74.008),
	}
	fs := newFakeStore(append([]model.Restaurant{near, far, noCoords}, padding...)...)
	gw := &fakeGateway{}

	criteria := center()
	criteria.MaxDistanceKM = f64(5)

	o := search.NewOrchestrator(fs, gw, nil)
	results, err := o.Search(context.Background(), criteria)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.PlaceID == "far" {
			t.Error("restaurant beyond the distance bound must be dropped")
		}
		if r.PlaceID == "nowhere" {
			t.Error("restaurant without coordinates must be dropped under a distance filter")
		}
		if r.DistanceKM == nil {
			t.Errorf("result %s missing distance annotation", r.PlaceID)
		}
	}
}

func TestSearch_SortDescendingByRatingNilAsZero(t *testing.T) {
	a := localRestaurant(1, "mid", 3.5, 40.71, -74.0)
	b := localRestaurant(2, "top", 4.8, 40.71, -74.0)
	c := localRestaurant(3, "low", 1.2, 40.71, -74.0)
	d := model.Restaurant{ID: 4, PlaceID: "unrated", Name: "unrated",
		Latitude: f64(40.71), Longitude: f64(-74.0)}
	e := localRestaurant(5, "alsotop", 4.8, 40.71, -74.0)

	fs := newFakeStore(a, b, c, d, e)
	o := search.NewOrchestrator(fs, &fakeGateway{}, nil)

	results, err := o.Search(context.Background(), model.SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := make([]string, 0, len(results))
	for _, r := range results {
		order = append(order, r.PlaceID)
	}
	want := []string{"top", "alsotop", "mid", "low", "unrated"}
	for idx, placeID := range want {
		if order[idx] != placeID {
			t.Fatalf("sort order = %v, want %v", order, want)
		}
	}
}

func TestSearch_BoundsRecheckExcludesMissingAttributes(t *testing.T) {
	rated := localRestaurant(1, "rated", 4.5, 40.71, -74.0)
	unrated := model.Restaurant{ID: 2, PlaceID: "unrated", Name: "unrated", Price: i(1),
		Latitude: f64(40.71), Longitude: f64(-74.0)}
	priceless := model.Restaurant{ID: 3, PlaceID: "priceless", Name: "priceless", Rating: f64(5),
		Latitude: f64(40.71), Longitude: f64(-74.0)}

	fs := newFakeStore(rated, unrated, priceless)
	o := search.NewOrchestrator(fs, &fakeGateway{}, nil)

	criteria := model.SearchCriteria{MinRating: f64(3.0), MaxPrice: i(3)}
	results, err := o.Search(context.Background(), criteria)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].PlaceID != "rated" {
		t.Errorf("bounds re-check should keep only the fully attributed record, got %+v", results)
	}
}

func TestSearch_NoCenterMeansNoBackfill(t *testing.T) {
	fs := newFakeStore()
	gw := &fakeGateway{results: []places.RawPlace{rawCandidate("x", "X", 1, 1)}}
	o := search.NewOrchestrator(fs, gw, nil)

	if _, err := o.Search(context.Background(), model.SearchCriteria{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls != 0 {
		t.Error("backfill requires search coordinates")
	}
}
