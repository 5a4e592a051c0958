package model

import "time"

type SessionType string

const (
	SessionDeepDive    SessionType = "deep_dive"
	SessionPatternHunt SessionType = "pattern_hunt"
	SessionTemporal    SessionType = "temporal"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

type Phase string

const (
	PhasePlanning   Phase = "planning"
	PhaseMonitoring Phase = "monitoring"
	PhaseEvaluation Phase = "evaluation"
)

// Session is one guided reflection run over one or more movies. Questions
// are served per movie in bank order; QuestionIndex walks the flattened
// movie x question sequence.
type Session struct {
	ID            string        `json:"id" bson:"_id,omitempty"`
	MovieIDs      []string      `json:"movieIds" bson:"movieIds"`
	Type          SessionType   `json:"type" bson:"type"`
	Status        SessionStatus `json:"status" bson:"status"`
	Phase         Phase         `json:"phase" bson:"phase"`
	QuestionIndex int           `json:"questionIndex" bson:"questionIndex"`
	StartedAt     time.Time     `json:"startedAt" bson:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

type StartSessionRequest struct {
	MovieIDs []string    `json:"movieIds"`
	Type     SessionType `json:"type"`
}

// AttemptState tracks follow-up escalation for one question in one session.
// It lives in the attempt cache, never in mongo.
type AttemptState struct {
	Tries     int       `json:"tries"`
	LastDraft string    `json:"lastDraft,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QuestionEnvelope is the current question with its position in the session.
// Done means every question has been answered and the session is ready to
// complete.
type QuestionEnvelope struct {
	Question *Question `json:"question,omitempty"`
	MovieID  string    `json:"movieId,omitempty"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Done     bool      `json:"done"`
}
