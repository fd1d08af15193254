// Package sentiment wraps the lexicon-based polarity scorer and provides
// the word tokenizer used for keyword extraction. Both are treated as
// black boxes by their callers.
package sentiment

import (
	"strings"
	"unicode"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// Polarity classification labels.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// Classification thresholds on the compound polarity score.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Polarity returns a compound polarity score in [-1, 1] for text.
func Polarity(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	return sentitext.PolarityScore(parsed).Compound
}

// Classify maps a polarity score onto one of the three labels.
func Classify(score float64) string {
	switch {
	case score > positiveThreshold:
		return LabelPositive
	case score < negativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Words tokenizes text into lowercase word tokens. Hyphens and apostrophes
// inside a word are kept so terms like "gluten-free" survive tokenization.
func Words(text string) []string {
	isSeparator := func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
	}
	fields := strings.FieldsFunc(strings.ToLower(text), isSeparator)

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
