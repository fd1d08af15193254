package diet_test

import (
	"testing"

	"foodfindr/internal/diet"
)

func TestDetect_SingleKeywords(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Green Garden Vegan Kitchen", diet.Vegan},
		{"Totally plant-based bowls", diet.Vegan},
		{"The Veggie Spot", diet.Vegetarian},
		{"Meatless Monday Cafe", diet.Vegetarian},
		{"Halal Grill House", diet.Halal},
		{"Kosher Deli on 5th", diet.Kosher},
		{"Gluten-Free Bakery", diet.GlutenFree},
		{"everything here is gluten free", diet.GlutenFree},
	}
	for _, c := range cases {
		flags := diet.Detect(c.text)
		if !flags[c.want] {
			t.Errorf("Detect(%q): expected %s flag", c.text, c.want)
		}
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	flags := diet.Detect("HALAL FRIED CHICKEN")
	if !flags[diet.Halal] {
		t.Error("Detect should be case-insensitive")
	}
}

func TestDetect_NoMatch(t *testing.T) {
	flags := diet.Detect("Joe's Steakhouse, Bar & Grill")
	for _, d := range diet.All {
		if flags[d] {
			t.Errorf("Detect(steakhouse) should not set %s", d)
		}
	}
}

func TestDetect_MultipleDiets(t *testing.T) {
	flags := diet.Detect("vegan and gluten-free options, halal certified")
	for _, d := range []string{diet.Vegan, diet.GlutenFree, diet.Halal} {
		if !flags[d] {
			t.Errorf("expected %s flag", d)
		}
	}
	if flags[diet.Kosher] {
		t.Error("kosher should not be flagged")
	}
}

func TestMentions(t *testing.T) {
	if !diet.Mentions("great Vegetarian menu", diet.Vegetarian) {
		t.Error("Mentions should match case-insensitively")
	}
	if diet.Mentions("great vegetarian menu", diet.Kosher) {
		t.Error("Mentions should not match a different diet")
	}
}

func TestKnown(t *testing.T) {
	for _, d := range diet.All {
		if !diet.Known(d) {
			t.Errorf("Known(%s) = false, want true", d)
		}
	}
	if diet.Known("pescatarian") {
		t.Error(`Known("pescatarian") = true, want false`)
	}
}
