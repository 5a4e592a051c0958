package model

import "time"

// Element categories. A Pattern's Type is one of these, or "preference" for
// patterns inferred from co-occurring signal phrases.
const (
	CategoryTechnical   = "technical"
	CategoryStructural  = "structural"
	CategoryPerformance = "performance"
	CategoryWriting     = "writing"
	CategoryEmotional   = "emotional"
	CategoryThematic    = "thematic"
	CategoryExperience  = "experience"

	PatternTypePreference = "preference"
)

// Pattern is a recurring taste signal aggregated across movies. Each
// detection run replaces the stored set; Validated is the only field a user
// sets directly (nil = unset, true = confirmed, false = rejected) and it
// survives re-detection, matched by Element.
type Pattern struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Element       string    `json:"element" bson:"element"`
	Type          string    `json:"type" bson:"type"`
	Description   string    `json:"description" bson:"description"`
	Sentiment     Sentiment `json:"sentiment" bson:"sentiment"`
	Confidence    float64   `json:"confidence" bson:"confidence"`
	MovieIDs      []string  `json:"movieIds" bson:"movieIds"`
	MovieCount    int       `json:"movieCount" bson:"movieCount"`
	MentionCount  int       `json:"mentionCount" bson:"mentionCount"`
	Examples      []string  `json:"examples,omitempty" bson:"examples,omitempty"`
	Validated     *bool     `json:"validated,omitempty" bson:"validated,omitempty"`
	FirstDetected time.Time `json:"firstDetected" bson:"firstDetected"`
	LastDetected  time.Time `json:"lastDetected" bson:"lastDetected"`
}

type ValidatePatternRequest struct {
	Confirmed bool `json:"confirmed"`
}
