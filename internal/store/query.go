package store

import (
	"fmt"
	"strings"

	"foodfindr/internal/diet"
	"foodfindr/internal/model"
)

const selectColumns = `id, place_id, name, COALESCE(description, ''), COALESCE(address, ''),
	latitude, longitude, categories, rating, price,
	is_vegan, is_vegetarian, is_halal, is_kosher, is_gluten_free,
	raw_data, insights, created_at, updated_at`

// dietColumns maps canonical diet names to their flag columns. Values are
// fixed identifiers, never user input.
var dietColumns = map[string]string{
	diet.Vegan:      "is_vegan",
	diet.Vegetarian: "is_vegetarian",
	diet.Halal:      "is_halal",
	diet.Kosher:     "is_kosher",
	diet.GlutenFree: "is_gluten_free",
}

// BuildSearchQuery renders criteria into a parameterised SELECT. Each
// present field contributes one ANDed predicate; absent fields contribute
// nothing. Unknown dietary restriction names are ignored rather than
// matched against nothing.
func BuildSearchQuery(c model.SearchCriteria) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Query != "" {
		p := arg("%" + c.Query + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}

	for _, restriction := range c.DietaryRestrictions {
		col, ok := dietColumns[restriction]
		if !ok {
			continue
		}
		conds = append(conds, col+" = TRUE")
	}

	if c.MinRating != nil {
		conds = append(conds, "rating >= "+arg(*c.MinRating))
	}
	if c.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*c.MaxPrice))
	}

	query := "SELECT " + selectColumns + " FROM restaurants"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	return query, args
}
