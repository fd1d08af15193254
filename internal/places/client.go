// Package places implements the upstream places-directory gateway and the
// normalisation of raw candidates into locally storable restaurants.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"foodfindr/internal/logging"
	"foodfindr/internal/monitoring"
)

const (
	defaultBaseURL = "https://api.foursquare.com/v3/places"

	// Restaurant category in the upstream taxonomy.
	defaultCategories = "13000"
	defaultSort       = "relevance"

	httpTimeout = 15 * time.Second

	maxRadiusMeters = 100000
	maxLimit        = 50
)

// ValidationError reports a caller-supplied parameter outside its allowed
// bounds. It always propagates to the caller — unlike transport failures,
// which are absorbed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Query carries the optional search parameters for FindNear. Latitude and
// longitude are required; everything else falls back to upstream defaults.
type Query struct {
	Latitude   float64
	Longitude  float64
	Radius     *int // meters, 0..100000
	Text       string
	Categories string
	MinPrice   *int // 1..4
	MaxPrice   *int // 1..4
	Limit      int  // 1..50; 0 means upstream default
	OpenNow    bool
	Sort       string
}

// Client queries the places directory. If APIKey is empty, FindNear returns
// an empty result set with a warning — search simply degrades to local data.
type Client struct {
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewClient constructs a Client with a shared HTTP client and a fixed call
// timeout so a hanging upstream cannot stall a request forever.
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// RawPlace mirrors a single result from the upstream search response.
type RawPlace struct {
	FsqID      string        `json:"fsq_id"`
	Name       string        `json:"name"`
	Location   RawLocation   `json:"location"`
	Geocodes   RawGeocodes   `json:"geocodes"`
	Categories []RawCategory `json:"categories"`
	Rating     float64       `json:"rating"`
	Price      int           `json:"price"`
	Website    string        `json:"website"`
	Tel        string        `json:"tel"`
	Hours      RawHours      `json:"hours"`
	Features   RawFeatures   `json:"features"`
}

type RawLocation struct {
	FormattedAddress string `json:"formatted_address"`
}

type RawGeocodes struct {
	Main *RawPoint `json:"main"`
}

type RawPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RawCategory struct {
	Name string `json:"name"`
}

type RawHours struct {
	Display string `json:"display"`
	OpenNow bool   `json:"open_now"`
}

type RawFeatures struct {
	Attributes map[string]string `json:"attributes"`
}

type searchResponse struct {
	Results []RawPlace `json:"results"`
}

// FindNear searches the places directory around a coordinate. Out-of-bound
// parameters fail with a *ValidationError. Transport failures and non-2xx
// responses are swallowed: they are logged, counted, and surfaced as an
// empty result set, never as an error.
func (c *Client) FindNear(ctx context.Context, q Query) ([]RawPlace, error) {
	if err := validate(q); err != nil {
		return nil, err
	}

	if c.APIKey == "" {
		logging.Warn("places API key not set, skipping upstream search", nil)
		return nil, nil
	}

	results, err := c.search(ctx, q)
	if err != nil {
		monitoring.UpstreamFailures.Inc()
		logging.Warn("places search failed, degrading to empty result set", logrus.Fields{
			"error": err.Error(),
			"lat":   q.Latitude,
			"lon":   q.Longitude,
		})
		return nil, nil
	}
	return results, nil
}

func validate(q Query) error {
	if q.Radius != nil && (*q.Radius < 0 || *q.Radius > maxRadiusMeters) {
		return &ValidationError{Msg: fmt.Sprintf("radius must be between 0 and %d meters", maxRadiusMeters)}
	}
	if q.Limit != 0 && (q.Limit < 1 || q.Limit > maxLimit) {
		return &ValidationError{Msg: fmt.Sprintf("limit must be between 1 and %d", maxLimit)}
	}
	if q.MinPrice != nil && (*q.MinPrice < 1 || *q.MinPrice > 4) {
		return &ValidationError{Msg: "min price must be between 1 and 4"}
	}
	if q.MaxPrice != nil && (*q.MaxPrice < 1 || *q.MaxPrice > 4) {
		return &ValidationError{Msg: "max price must be between 1 and 4"}
	}
	return nil
}

func (c *Client) search(ctx context.Context, q Query) ([]RawPlace, error) {
	params := url.Values{}
	params.Set("ll", fmt.Sprintf("%f,%f", q.Latitude, q.Longitude))

	sort := q.Sort
	if sort == "" {
		sort = defaultSort
	}
	params.Set("sort", sort)

	categories := q.Categories
	if categories == "" {
		categories = defaultCategories
	}
	params.Set("categories", categories)

	if q.Radius != nil {
		params.Set("radius", strconv.Itoa(*q.Radius))
	}
	if q.Limit != 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Text != "" {
		params.Set("query", q.Text)
	}
	if q.MinPrice != nil {
		params.Set("min_price", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		params.Set("max_price", strconv.Itoa(*q.MaxPrice))
	}
	if q.OpenNow {
		params.Set("open_now", "true")
	}

	reqURL := c.BaseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp searchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	return apiResp.Results, nil
}
