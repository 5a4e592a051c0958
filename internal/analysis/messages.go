package analysis

import (
	"fmt"
	"math/rand"
	"strings"

	"tastetrail/internal/model"
)

// PickFunc selects one entry from a non-empty pool. The engine treats the
// choice as display-only; scores and filtering never depend on it.
type PickFunc func(pool []string) string

// RandomPick is the production selector.
func RandomPick(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

// FirstPick always returns the first entry. Tests use it to pin down text.
func FirstPick(pool []string) string {
	return pool[0]
}

var encouragementPool = []string{
	"That's exactly the kind of detail that helps.",
	"Good—I can see that scene now.",
	"That specificity is valuable.",
	"This is helpful for understanding your taste.",
}

// acceptancePool is for responses taken despite remaining vague.
var acceptancePool = []string{
	"I'll note that as you've described it.",
	"Sometimes that's as specific as a feeling gets. Noted.",
	"Let's move on—we can always come back to this.",
}

// Encouragement returns a message for a response accepted on its merits.
func Encouragement(pick PickFunc) string {
	return pick(encouragementPool)
}

// AcceptanceNote returns a message for a vague response accepted anyway.
func AcceptanceNote(pick PickFunc) string {
	return pick(acceptancePool)
}

var descriptionPools = map[model.Sentiment][]string{
	model.SentimentPositive: {
		"You consistently respond to %s across different films",
		"You light up when a film delivers on %s",
		"You gravitate toward films that get %s right",
	},
	model.SentimentNegative: {
		"You are quick to call out %s when it falls short",
		"You push back when %s doesn't land",
		"Your complaints keep circling back to %s",
	},
	model.SentimentNeutral: {
		"You pay close attention to %s",
		"You keep coming back to %s in your reflections",
		"You frequently mention %s when describing what stayed with you",
	},
}

// elementDescription renders a pattern description for the element's display
// label, keyed by its dominant sentiment. Unknown sentiments fall back to the
// neutral pool.
func elementDescription(sentiment model.Sentiment, label string, pick PickFunc) string {
	pool, ok := descriptionPools[sentiment]
	if !ok {
		pool = descriptionPools[model.SentimentNeutral]
	}
	return fmt.Sprintf(pick(pool), strings.ToLower(label))
}
