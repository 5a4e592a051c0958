package model

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// ElementMatch is one subject-matter facet found in a reflection, tagged
// with the sentiment of the text window around the mention. Matches are
// transient: the aggregator consumes them and they are never persisted.
type ElementMatch struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	Sentiment Sentiment `json:"sentiment"`
	Context   string    `json:"context,omitempty"`
}

// Response is an accepted reflection. Immutable once created; Confidence is
// the user's own 1-5 rating and plays no part in any scoring.
type Response struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	SessionID        string    `json:"sessionId" bson:"sessionId"`
	MovieID          string    `json:"movieId" bson:"movieId"`
	QuestionKey      string    `json:"questionKey" bson:"questionKey"`
	QuestionText     string    `json:"questionText" bson:"questionText"`
	Phase            Phase     `json:"phase" bson:"phase"`
	Text             string    `json:"text" bson:"text"`
	Confidence       int       `json:"confidence,omitempty" bson:"confidence,omitempty"`
	IsVague          bool      `json:"isVague" bson:"isVague"`
	VaguenessType    string    `json:"vaguenessType,omitempty" bson:"vaguenessType,omitempty"`
	SpecificityScore float64   `json:"specificityScore" bson:"specificityScore"`
	FollowUpCount    int       `json:"followUpCount" bson:"followUpCount"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
}

type SubmitReflectionRequest struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence,omitempty"`
}

// ReflectionResult is the outcome of one submission: either the response was
// accepted and the session advanced, or a follow-up prompt pushing for more
// specificity.
type ReflectionResult struct {
	Accepted     bool      `json:"accepted"`
	Message      string    `json:"message,omitempty"`
	FollowUp     string    `json:"followUp,omitempty"`
	Attempts     int       `json:"attempts,omitempty"`
	Response     *Response `json:"response,omitempty"`
	NextQuestion *Question `json:"nextQuestion,omitempty"`
	PhaseChanged bool      `json:"phaseChanged,omitempty"`
	SessionDone  bool      `json:"sessionDone,omitempty"`
}
