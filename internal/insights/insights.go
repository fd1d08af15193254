// Package insights computes per-restaurant review analytics — sentiment
// distribution, dietary mentions, and frequent keywords — and the
// store-wide dietary trend aggregate.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"foodfindr/internal/diet"
	"foodfindr/internal/logging"
	"foodfindr/internal/model"
	"foodfindr/internal/sentiment"
	"foodfindr/internal/store"
)

// Keyword extraction keeps the topWordCount most frequent tokens longer
// than minWordLength characters.
const (
	topWordCount  = 5
	minWordLength = 2
)

// EventInsightsUpdated is published (best effort) after a successful
// regeneration.
const EventInsightsUpdated = "EVENT_INSIGHTS_UPDATED"

// Engine generates and persists restaurant insights.
type Engine struct {
	store store.Store
	rdb   *redis.Client // optional; nil disables event publication
}

// NewEngine returns a configured Engine. rdb may be nil.
func NewEngine(st store.Store, rdb *redis.Client) *Engine {
	return &Engine{store: st, rdb: rdb}
}

// Generate recomputes insights for the restaurant and writes them back onto
// its record. Returns store.ErrNotFound when the id does not resolve.
//
// This is a read-compute-write cycle with no locking: concurrent calls for
// the same restaurant race and the last writer wins, which is acceptable
// for derived, recomputable data.
func (e *Engine) Generate(ctx context.Context, restaurantID int64) (*model.Insights, error) {
	if _, err := e.store.FindByID(ctx, restaurantID); err != nil {
		return nil, err
	}

	reviews, err := e.store.ReviewsByRestaurant(ctx, restaurantID, 0)
	if err != nil {
		return nil, fmt.Errorf("load reviews for restaurant %d: %w", restaurantID, err)
	}

	ins := Compute(reviews)
	if err := e.store.SaveInsights(ctx, restaurantID, ins); err != nil {
		return nil, err
	}

	e.publishUpdated(ctx, restaurantID)
	return ins, nil
}

// Compute derives insights from a review set. A restaurant with zero
// reviews yields an all-zero result, not an error.
func Compute(reviews []model.Review) *model.Insights {
	ins := &model.Insights{
		TotalReviews:    len(reviews),
		DietaryMentions: zeroMentions(),
		TopWords:        []string{},
		GeneratedAt:     time.Now().UTC(),
	}

	var polaritySum float64
	wordCounts := make(map[string]int)
	var wordOrder []string

	for _, rev := range reviews {
		score := sentiment.Polarity(rev.Text)
		polaritySum += score
		switch sentiment.Classify(score) {
		case sentiment.LabelPositive:
			ins.Sentiment.Positive++
		case sentiment.LabelNegative:
			ins.Sentiment.Negative++
		default:
			ins.Sentiment.Neutral++
		}

		// One count per review per diet, regardless of how often the
		// keywords occur within the text.
		for _, d := range diet.All {
			if diet.Mentions(rev.Text, d) {
				ins.DietaryMentions[d]++
			}
		}

		for _, word := range sentiment.Words(rev.Text) {
			if len(word) <= minWordLength {
				continue
			}
			if _, seen := wordCounts[word]; !seen {
				wordOrder = append(wordOrder, word)
			}
			wordCounts[word]++
		}
	}

	if len(reviews) > 0 {
		ins.AverageSentiment = polaritySum / float64(len(reviews))
	}
	ins.TopWords = topWords(wordCounts, wordOrder)

	return ins
}

// topWords picks the most frequent words, breaking frequency ties by first
// appearance so the result is deterministic.
func topWords(counts map[string]int, order []string) []string {
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topWordCount {
		order = order[:topWordCount]
	}
	result := make([]string, len(order))
	copy(result, order)
	return result
}

func zeroMentions() map[string]int {
	mentions := make(map[string]int, len(diet.All))
	for _, d := range diet.All {
		mentions[d] = 0
	}
	return mentions
}

func (e *Engine) publishUpdated(ctx context.Context, restaurantID int64) {
	if e.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]any{
		"type":          EventInsightsUpdated,
		"restaurant_id": restaurantID,
	})
	if err := e.rdb.Publish(ctx, EventInsightsUpdated, event).Err(); err != nil {
		logging.Warn("publish insights event failed", logrus.Fields{"error": err.Error()})
	}
}
