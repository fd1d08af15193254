package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodfindr/internal/model"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store backed by pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
// The process entry point runs this once at startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS restaurants (
		id             BIGSERIAL PRIMARY KEY,
		place_id       TEXT NOT NULL UNIQUE,
		name           TEXT NOT NULL,
		description    TEXT,
		address        TEXT,
		latitude       DOUBLE PRECISION,
		longitude      DOUBLE PRECISION,
		categories     TEXT[] NOT NULL DEFAULT '{}',
		rating         DOUBLE PRECISION,
		price          INTEGER,
		is_vegan       BOOLEAN NOT NULL DEFAULT FALSE,
		is_vegetarian  BOOLEAN NOT NULL DEFAULT FALSE,
		is_halal       BOOLEAN NOT NULL DEFAULT FALSE,
		is_kosher      BOOLEAN NOT NULL DEFAULT FALSE,
		is_gluten_free BOOLEAN NOT NULL DEFAULT FALSE,
		raw_data       JSONB,
		insights       JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS reviews (
		id               BIGSERIAL PRIMARY KEY,
		restaurant_id    BIGINT NOT NULL REFERENCES restaurants(id),
		review_text      TEXT NOT NULL,
		rating           DOUBLE PRECISION,
		sentiment        TEXT,
		dietary_keywords JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_restaurant ON reviews (restaurant_id, created_at DESC);`

	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites by place id. ON CONFLICT DO UPDATE makes the
// duplicate-key race between concurrent backfills resolve to an update.
func (p *Postgres) Upsert(ctx context.Context, r *model.Restaurant) (*model.Restaurant, bool, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO restaurants (
			place_id, name, description, address, latitude, longitude,
			categories, rating, price,
			is_vegan, is_vegetarian, is_halal, is_kosher, is_gluten_free,
			raw_data
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 ON CONFLICT (place_id) DO UPDATE SET
			name           = EXCLUDED.name,
			description    = EXCLUDED.description,
			address        = EXCLUDED.address,
			latitude       = EXCLUDED.latitude,
			longitude      = EXCLUDED.longitude,
			categories     = EXCLUDED.categories,
			rating         = EXCLUDED.rating,
			price          = EXCLUDED.price,
			is_vegan       = EXCLUDED.is_vegan,
			is_vegetarian  = EXCLUDED.is_vegetarian,
			is_halal       = EXCLUDED.is_halal,
			is_kosher      = EXCLUDED.is_kosher,
			is_gluten_free = EXCLUDED.is_gluten_free,
			raw_data       = EXCLUDED.raw_data,
			updated_at     = NOW()
		 RETURNING `+selectColumns+`, (xmax = 0)`,
		r.PlaceID, r.Name, nullIfEmpty(r.Description), nullIfEmpty(r.Address),
		r.Latitude, r.Longitude, r.Categories, r.Rating, r.Price,
		r.Dietary.Vegan, r.Dietary.Vegetarian, r.Dietary.Halal,
		r.Dietary.Kosher, r.Dietary.GlutenFree,
		r.RawData,
	)

	var (
		stored  model.Restaurant
		created bool
	)
	if err := scanRestaurant(row, &stored, &created); err != nil {
		return nil, false, fmt.Errorf("upsert restaurant %s: %w", r.PlaceID, err)
	}
	return &stored, created, nil
}

// FindByID looks up a restaurant by its internal id.
func (p *Postgres) FindByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM restaurants WHERE id = $1`, id)
	var r model.Restaurant
	if err := scanRestaurant(row, &r, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find restaurant %d: %w", id, err)
	}
	return &r, nil
}

// FindByPlaceID looks up a restaurant by its upstream place id.
func (p *Postgres) FindByPlaceID(ctx context.Context, placeID string) (*model.Restaurant, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM restaurants WHERE place_id = $1`, placeID)
	var r model.Restaurant
	if err := scanRestaurant(row, &r, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find restaurant %q: %w", placeID, err)
	}
	return &r, nil
}

// Search runs the criteria-derived query built by BuildSearchQuery.
func (p *Postgres) Search(ctx context.Context, c model.SearchCriteria) ([]model.Restaurant, error) {
	query, args := BuildSearchQuery(c)
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search restaurants: %w", err)
	}
	defer rows.Close()

	results := make([]model.Restaurant, 0)
	for rows.Next() {
		var r model.Restaurant
		if err := scanRestaurant(rows, &r, nil); err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DietaryCounts aggregates the dietary flags over the whole table.
func (p *Postgres) DietaryCounts(ctx context.Context) (model.DietaryCounts, error) {
	var c model.DietaryCounts
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_vegan),
			COUNT(*) FILTER (WHERE is_vegetarian),
			COUNT(*) FILTER (WHERE is_halal),
			COUNT(*) FILTER (WHERE is_kosher),
			COUNT(*) FILTER (WHERE is_gluten_free)
		 FROM restaurants`,
	).Scan(&c.Total, &c.Vegan, &c.Vegetarian, &c.Halal, &c.Kosher, &c.GlutenFree)
	if err != nil {
		return model.DietaryCounts{}, fmt.Errorf("dietary counts: %w", err)
	}
	return c, nil
}

// CreateReview stores a review; the caller has already derived sentiment
// and dietary keywords.
func (p *Postgres) CreateReview(ctx context.Context, rev *model.Review) (*model.Review, error) {
	keywords, err := json.Marshal(rev.DietaryKeywords)
	if err != nil {
		keywords = []byte("{}")
	}

	stored := *rev
	err = p.pool.QueryRow(ctx,
		`INSERT INTO reviews (restaurant_id, review_text, rating, sentiment, dietary_keywords)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rev.RestaurantID, rev.Text, rev.Rating, nullIfEmpty(rev.Sentiment), keywords,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &stored, nil
}

// ReviewsByRestaurant returns reviews newest first; limit <= 0 returns all.
func (p *Postgres) ReviewsByRestaurant(ctx context.Context, restaurantID int64, limit int) ([]model.Review, error) {
	query := `SELECT id, restaurant_id, review_text, rating,
			COALESCE(sentiment, ''), dietary_keywords, created_at
		 FROM reviews WHERE restaurant_id = $1 ORDER BY created_at DESC`
	args := []any{restaurantID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reviews for restaurant %d: %w", restaurantID, err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var (
			rev      model.Review
			keywords []byte
		)
		if err := rows.Scan(&rev.ID, &rev.RestaurantID, &rev.Text, &rev.Rating,
			&rev.Sentiment, &keywords, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("review scan: %w", err)
		}
		if len(keywords) > 0 {
			_ = json.Unmarshal(keywords, &rev.DietaryKeywords)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// SaveInsights writes the derived analytics back onto the restaurant row.
func (p *Postgres) SaveInsights(ctx context.Context, restaurantID int64, ins *model.Insights) error {
	payload, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE restaurants SET insights = $1, updated_at = NOW() WHERE id = $2`,
		payload, restaurantID)
	if err != nil {
		return fmt.Errorf("save insights for restaurant %d: %w", restaurantID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanRestaurant scans a selectColumns row. When created is non-nil the row
// must carry a trailing boolean ("xmax = 0", true for fresh inserts).
func scanRestaurant(row pgx.Row, r *model.Restaurant, created *bool) error {
	var insights []byte
	dest := []any{
		&r.ID, &r.PlaceID, &r.Name, &r.Description, &r.Address,
		&r.Latitude, &r.Longitude, &r.Categories, &r.Rating, &r.Price,
		&r.Dietary.Vegan, &r.Dietary.Vegetarian, &r.Dietary.Halal,
		&r.Dietary.Kosher, &r.Dietary.GlutenFree,
		&r.RawData, &insights, &r.CreatedAt, &r.UpdatedAt,
	}
	if created != nil {
		dest = append(dest, created)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if len(insights) > 0 {
		var ins model.Insights
		if err := json.Unmarshal(insights, &ins); err == nil {
			r.Insights = &ins
		}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
