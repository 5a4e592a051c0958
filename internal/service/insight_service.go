package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tastetrail/internal/analysis"
	"tastetrail/internal/cache"
	"tastetrail/internal/model"
	"tastetrail/internal/repository"
)

const (
	summaryTopElements = 10
	summaryStrongest   = 3
	insightTopElements = 5
)

// InsightService builds the read-only reporting views: the cross-journal
// taste summary and per-session breakdowns.
type InsightService struct {
	movieRepo    repository.MovieRepo
	sessionRepo  repository.SessionRepo
	responseRepo repository.ResponseRepo
	patternSvc   *PatternService
	patterns     cache.PatternCache
	elements     cache.ElementCache
	extractor    *analysis.Extractor
	logger       *zap.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(
	movieRepo repository.MovieRepo,
	sessionRepo repository.SessionRepo,
	responseRepo repository.ResponseRepo,
	patternSvc *PatternService,
	patterns cache.PatternCache,
	elements cache.ElementCache,
	extractor *analysis.Extractor,
	logger *zap.Logger,
) *InsightService {
	return &InsightService{
		movieRepo:    movieRepo,
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		patternSvc:   patternSvc,
		patterns:     patterns,
		elements:     elements,
		extractor:    extractor,
		logger:       logger,
	}
}

// TasteSummary assembles the whole-journal view. The result is cached until
// the next detection run or validation invalidates it.
func (s *InsightService) TasteSummary(ctx context.Context) (*model.TasteSummary, error) {
	cached, err := s.patterns.GetSummary(ctx)
	if err != nil {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	totalMovies, err := s.movieRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}

	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var completed int64
	for _, sess := range sessions {
		if sess.Status == model.SessionCompleted {
			completed++
		}
	}

	responses, err := s.responseRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	avgSpecificity, err := s.responseRepo.AverageSpecificity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average specificity: %w", err)
	}

	topElements, err := s.elements.TopElements(ctx, summaryTopElements)
	if err != nil {
		s.logger.Warn("element leaderboard read failed", zap.Error(err))
	}

	patterns, err := s.patternSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}

	summary := &model.TasteSummary{
		TotalMovies:        totalMovies,
		TotalSessions:      int64(len(sessions)),
		CompletedSessions:  completed,
		TotalResponses:     int64(len(responses)),
		AverageSpecificity: avgSpecificity,
		TopElements:        topElements,
		PatternsByType:     make(map[string]int),
		SentimentMix:       make(map[model.Sentiment]int),
		GeneratedAt:        time.Now(),
	}

	for _, p := range patterns {
		rejected := p.Validated != nil && !*p.Validated
		if rejected {
			summary.RejectedPatterns++
			continue
		}
		if p.Validated != nil && *p.Validated {
			summary.ConfirmedPatterns++
		}
		summary.PatternsByType[p.Type]++
		summary.SentimentMix[p.Sentiment]++
		if len(summary.StrongestPatterns) < summaryStrongest {
			summary.StrongestPatterns = append(summary.StrongestPatterns, p)
		}
	}

	if err := s.patterns.SetSummary(ctx, summary); err != nil {
		s.logger.Warn("failed to cache summary", zap.Error(err))
	}

	return summary, nil
}

// SessionInsight reports on a single session: how specific the reflections
// were, how much push-back they needed and which elements came up.
func (s *InsightService) SessionInsight(ctx context.Context, sessionID string) (*model.SessionInsight, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	insight := &model.SessionInsight{
		SessionID: sessionID,
		Type:      session.Type,
		Status:    session.Status,
		Responses: len(responses),
	}

	for _, movieID := range session.MovieIDs {
		movie, err := s.movieRepo.GetByID(ctx, movieID)
		if err != nil {
			return nil, fmt.Errorf("failed to get movie: %w", err)
		}
		if movie != nil {
			insight.Movies = append(insight.Movies, movie.Title)
		}
	}

	if len(responses) == 0 {
		insight.OverallSentiment = model.SentimentNeutral
		return insight, nil
	}

	var (
		scoreSum    float64
		texts       []string
		elementHits = make(map[string]int)
		phaseCount  = make(map[model.Phase]int)
		phaseScore  = make(map[model.Phase]float64)
	)
	for _, r := range responses {
		scoreSum += r.SpecificityScore
		if r.IsVague {
			insight.VagueResponses++
		}
		insight.FollowUpsServed += r.FollowUpCount
		texts = append(texts, r.Text)
		phaseCount[r.Phase]++
		phaseScore[r.Phase] += r.SpecificityScore
		for _, match := range s.extractor.ExtractElements(r.Text) {
			elementHits[match.Key]++
		}
	}

	insight.AverageSpecificity = scoreSum / float64(len(responses))
	insight.OverallSentiment = s.extractor.OverallSentiment(strings.Join(texts, " "))
	insight.TopElements = topElementStats(elementHits, insightTopElements)

	for _, phase := range []model.Phase{model.PhasePlanning, model.PhaseMonitoring, model.PhaseEvaluation} {
		n := phaseCount[phase]
		if n == 0 {
			continue
		}
		insight.Phases = append(insight.Phases, model.PhaseBreakdown{
			Phase:              phase,
			Responses:          n,
			AverageSpecificity: phaseScore[phase] / float64(n),
		})
	}

	return insight, nil
}

// topElementStats ranks a tally map by count, ties broken alphabetically.
func topElementStats(hits map[string]int, limit int) []model.ElementStat {
	stats := make([]model.ElementStat, 0, len(hits))
	for element, mentions := range hits {
		stats = append(stats, model.ElementStat{Element: element, Mentions: mentions})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Mentions != stats[j].Mentions {
			return stats[i].Mentions > stats[j].Mentions
		}
		return stats[i].Element < stats[j].Element
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
