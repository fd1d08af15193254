// Package model defines the shared data structures for the food-findr backend.
package model

import "time"

// Restaurant is a locally stored restaurant record. PlaceID is the stable
// identifier assigned by the upstream places directory and is unique across
// the store; everything else may be overwritten when the same place
// resurfaces with fresh attributes.
type Restaurant struct {
	ID          int64      `json:"id"`
	PlaceID     string     `json:"place_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Address     string     `json:"address,omitempty"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Categories  []string   `json:"categories"`
	Rating      *float64   `json:"rating"`
	Price       *int       `json:"price"`
	Dietary     Dietary    `json:"dietary_options"`
	RawData     []byte     `json:"-"`
	Insights    *Insights  `json:"insights,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Dietary holds the five independent dietary flags. They are heuristic
// (keyword-derived), never authoritative.
type Dietary struct {
	Vegan      bool `json:"vegan"`
	Vegetarian bool `json:"vegetarian"`
	Halal      bool `json:"halal"`
	Kosher     bool `json:"kosher"`
	GlutenFree bool `json:"gluten_free"`
}

// Review belongs to exactly one restaurant and is immutable once created.
type Review struct {
	ID              int64          `json:"id"`
	RestaurantID    int64          `json:"restaurant_id"`
	Text            string         `json:"text"`
	Rating          *float64       `json:"rating,omitempty"`
	Sentiment       string         `json:"sentiment,omitempty"`
	DietaryKeywords map[string]int `json:"dietary_keywords,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// SearchCriteria is the transient filter set for a restaurant search.
// Every field is independently optional; a nil field means "no constraint",
// never "zero".
type SearchCriteria struct {
	Latitude            *float64
	Longitude           *float64
	MaxDistanceKM       *float64
	DietaryRestrictions []string
	MinRating           *float64
	MaxPrice            *int
	Query               string
}

// HasCenter reports whether both coordinates are present.
func (c SearchCriteria) HasCenter() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Insights are derived, recomputable analytics attached to a restaurant
// from its reviews. Concurrent regeneration races are accepted: last
// writer wins.
type Insights struct {
	TotalReviews     int                   `json:"total_reviews"`
	AverageSentiment float64               `json:"average_sentiment"`
	Sentiment        SentimentDistribution `json:"sentiment_distribution"`
	DietaryMentions  map[string]int        `json:"dietary_mentions"`
	TopWords         []string              `json:"top_words"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

// SentimentDistribution counts reviews per polarity class.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// DietaryCounts is the raw aggregate used for the dietary-trends endpoint.
type DietaryCounts struct {
	Total      int64
	Vegan      int64
	Vegetarian int64
	Halal      int64
	Kosher     int64
	GlutenFree int64
}

// SyncLocation is one named coordinate pair in the periodic sync list.
type SyncLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSyncResult accumulates per-location ingestion counters.
type LocationSyncResult struct {
	Location string `json:"location"`
	Fetched  int    `json:"fetched"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
}

// SyncReport summarises one full sync cycle across all locations.
// Locations that failed entirely are counted in LocationsFailed and carry
// no per-location entry.
type SyncReport struct {
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	LocationsSynced int                  `json:"locations_synced"`
	LocationsFailed int                  `json:"locations_failed"`
	TotalFetched    int                  `json:"total_fetched"`
	Details         []LocationSyncResult `json:"details"`
}
