// Package diet holds the single shared dietary keyword table used by both
// candidate normalisation and review analysis. Keeping one table prevents
// the two consumers drifting apart.
package diet

import "strings"

// Canonical diet names, also used as dietary_restrictions values in search
// criteria and as keys in dietary-mention maps.
const (
	Vegan      = "vegan"
	Vegetarian = "vegetarian"
	Halal      = "halal"
	Kosher     = "kosher"
	GlutenFree = "gluten_free"
)

// All lists every diet name in a fixed order.
var All = []string{Vegan, Vegetarian, Halal, Kosher, GlutenFree}

// keywords maps each diet to the lowercase terms that signal it. The match
// is a plain substring check: a heuristic with expected false positives and
// negatives, never an authoritative classification.
var keywords = map[string][]string{
	Vegan:      {"vegan", "plant-based", "dairy-free"},
	Vegetarian: {"vegetarian", "veggie", "meatless", "no meat"},
	Halal:      {"halal"},
	Kosher:     {"kosher"},
	GlutenFree: {"gluten-free", "gluten free", "no gluten"},
}

// Known reports whether name is one of the five canonical diet names.
func Known(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Mentions returns true when any keyword for the given diet appears in text.
// Matching is case-insensitive.
func Mentions(text, dietName string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords[dietName] {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Detect scans text once per diet and returns the set of flags whose
// keywords appear.
func Detect(text string) map[string]bool {
	lowered := strings.ToLower(text)
	flags := make(map[string]bool, len(All))
	for _, d := range All {
		for _, kw := range keywords[d] {
			if strings.Contains(lowered, kw) {
				flags[d] = true
				break
			}
		}
	}
	return flags
}
