package places

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"foodfindr/internal/diet"
	"foodfindr/internal/logging"
	"foodfindr/internal/model"
)

// Defaults applied when the upstream source omits a value. Callers must
// treat them as "unknown", not as a real signal.
const (
	defaultRating = 4.0
	defaultPrice  = 2
)

// Normalize maps a raw upstream place into the internal restaurant schema.
// It returns (nil, false) — with a diagnostic log — when the external id,
// name, or resolved coordinates are missing, since those are mandatory for
// storage.
func Normalize(raw RawPlace) (*model.Restaurant, bool) {
	if raw.FsqID == "" || raw.Name == "" || raw.Geocodes.Main == nil {
		logging.Warn("skipping candidate with missing mandatory fields", logrus.Fields{
			"place_id":   raw.FsqID,
			"name":       raw.Name,
			"has_coords": raw.Geocodes.Main != nil,
		})
		return nil, false
	}

	categories := make([]string, 0, len(raw.Categories))
	for _, c := range raw.Categories {
		if c.Name != "" {
			categories = append(categories, c.Name)
		}
	}

	rating := raw.Rating
	if rating == 0 {
		rating = defaultRating
	}
	price := raw.Price
	if price == 0 {
		price = defaultPrice
	}

	lat := raw.Geocodes.Main.Latitude
	lon := raw.Geocodes.Main.Longitude

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		// Marshal of a plain mirror struct cannot realistically fail;
		// store an empty payload rather than dropping the candidate.
		rawJSON = nil
	}

	return &model.Restaurant{
		PlaceID:    raw.FsqID,
		Name:       raw.Name,
		Address:    raw.Location.FormattedAddress,
		Latitude:   &lat,
		Longitude:  &lon,
		Categories: categories,
		Rating:     &rating,
		Price:      &price,
		Dietary:    deriveDietary(raw, categories),
		RawData:    rawJSON,
	}, true
}

// deriveDietary combines the keyword heuristic over name + category text
// with the upstream feature attributes, when the directory supplies them.
func deriveDietary(raw RawPlace, categories []string) model.Dietary {
	text := raw.Name + " " + strings.Join(categories, " ")
	flags := diet.Detect(text)

	attrs := raw.Features.Attributes
	return model.Dietary{
		Vegan:      flags[diet.Vegan] || attrs["vegan_diet"] == "true",
		Vegetarian: flags[diet.Vegetarian] || attrs["vegetarian_diet"] == "true",
		Halal:      flags[diet.Halal] || attrs["halal_diet"] == "true",
		Kosher:     flags[diet.Kosher] || attrs["kosher_diet"] == "true",
		GlutenFree: flags[diet.GlutenFree] || attrs["gluten_free_diet"] == "true",
	}
}
