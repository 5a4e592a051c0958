package model

import "time"

// ElementStat is one row of the element leaderboard.
type ElementStat struct {
	Element  string `json:"element"`
	Mentions int    `json:"mentions"`
}

// TasteSummary is the cross-corpus view served by the insights endpoint.
type TasteSummary struct {
	TotalMovies        int64             `json:"totalMovies"`
	TotalSessions      int64             `json:"totalSessions"`
	CompletedSessions  int64             `json:"completedSessions"`
	TotalResponses     int64             `json:"totalResponses"`
	AverageSpecificity float64           `json:"averageSpecificity"`
	TopElements        []ElementStat     `json:"topElements"`
	PatternsByType     map[string]int    `json:"patternsByType"`
	SentimentMix       map[Sentiment]int `json:"sentimentMix"`
	ConfirmedPatterns  int               `json:"confirmedPatterns"`
	RejectedPatterns   int               `json:"rejectedPatterns"`
	StrongestPatterns  []*Pattern        `json:"strongestPatterns"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}

type PhaseBreakdown struct {
	Phase              Phase   `json:"phase"`
	Responses          int     `json:"responses"`
	AverageSpecificity float64 `json:"averageSpecificity"`
}

// SessionInsight is the per-session report.
type SessionInsight struct {
	SessionID          string           `json:"sessionId"`
	Type               SessionType      `json:"type"`
	Status             SessionStatus    `json:"status"`
	Movies             []string         `json:"movies"`
	Responses          int              `json:"responses"`
	AverageSpecificity float64          `json:"averageSpecificity"`
	VagueResponses     int              `json:"vagueResponses"`
	FollowUpsServed    int              `json:"followUpsServed"`
	OverallSentiment   Sentiment        `json:"overallSentiment"`
	TopElements        []ElementStat    `json:"topElements"`
	Phases             []PhaseBreakdown `json:"phases"`
}

// ExportBundle is the full-journal JSON export.
type ExportBundle struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exportedAt"`
	Movies     []*Movie    `json:"movies"`
	Sessions   []*Session  `json:"sessions"`
	Responses  []*Response `json:"responses"`
	Patterns   []*Pattern  `json:"patterns"`
}
