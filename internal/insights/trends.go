package insights

import (
	"math"

	"foodfindr/internal/diet"
	"foodfindr/internal/model"
)

// TrendsFromCounts converts the raw dietary aggregate into per-diet
// percentages of all stored restaurants, rounded to two decimals. An empty
// store yields all zeros, not an error.
func TrendsFromCounts(c model.DietaryCounts) map[string]float64 {
	trends := map[string]float64{
		diet.Vegan:      0,
		diet.Vegetarian: 0,
		diet.Halal:      0,
		diet.Kosher:     0,
		diet.GlutenFree: 0,
	}
	if c.Total == 0 {
		return trends
	}

	pct := func(n int64) float64 {
		return math.Round(float64(n)/float64(c.Total)*100*100) / 100
	}
	trends[diet.Vegan] = pct(c.Vegan)
	trends[diet.Vegetarian] = pct(c.Vegetarian)
	trends[diet.Halal] = pct(c.Halal)
	trends[diet.Kosher] = pct(c.Kosher)
	trends[diet.GlutenFree] = pct(c.GlutenFree)
	return trends
}
