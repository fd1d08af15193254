package sentiment_test

import (
	"reflect"
	"testing"

	"foodfindr/internal/sentiment"
)

func TestPolarity_Range(t *testing.T) {
	texts := []string{
		"The food was absolutely amazing, best meal of my life!",
		"Terrible service, cold food, never coming back.",
		"The restaurant is on Main Street.",
		"",
	}
	for _, text := range texts {
		score := sentiment.Polarity(text)
		if score < -1 || score > 1 {
			t.Errorf("Polarity(%q) = %v, out of [-1, 1]", text, score)
		}
	}
}

func TestPolarity_Signs(t *testing.T) {
	pos := sentiment.Polarity("Wonderful food, great atmosphere, loved everything!")
	if pos <= 0 {
		t.Errorf("clearly positive text scored %v", pos)
	}
	neg := sentiment.Polarity("Horrible, disgusting food and rude staff.")
	if neg >= 0 {
		t.Errorf("clearly negative text scored %v", neg)
	}
	if got := sentiment.Polarity(""); got != 0 {
		t.Errorf("empty text scored %v, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.8, sentiment.LabelPositive},
		{0.06, sentiment.LabelPositive},
		{0.05, sentiment.LabelNeutral},
		{0, sentiment.LabelNeutral},
		{-0.05, sentiment.LabelNeutral},
		{-0.06, sentiment.LabelNegative},
		{-0.9, sentiment.LabelNegative},
	}
	for _, c := range cases {
		if got := sentiment.Classify(c.score); got != c.want {
			t.Errorf("Classify(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestWords(t *testing.T) {
	got := sentiment.Words("Great gluten-free pizza... really GREAT!")
	want := []string{"great", "gluten-free", "pizza", "really", "great"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestWords_Empty(t *testing.T) {
	if got := sentiment.Words("  ... !!! "); len(got) != 0 {
		t.Errorf("Words on punctuation-only input = %v, want empty", got)
	}
}
