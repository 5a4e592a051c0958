package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tastetrail/internal/analysis"
	"tastetrail/internal/cache"
	"tastetrail/internal/model"
	"tastetrail/internal/repository"
)

var ErrPatternNotFound = errors.New("pattern not found")

// PatternService owns the stored pattern set: full re-detection over the
// response corpus, cache-backed reads and confirm/reject feedback.
type PatternService struct {
	patternRepo  repository.PatternRepo
	responseRepo repository.ResponseRepo
	movieRepo    repository.MovieRepo
	aggregator   *analysis.Aggregator
	extractor    *analysis.Extractor
	patterns     cache.PatternCache
	elements     cache.ElementCache
	logger       *zap.Logger
}

// NewPatternService creates a new pattern service
func NewPatternService(
	patternRepo repository.PatternRepo,
	responseRepo repository.ResponseRepo,
	movieRepo repository.MovieRepo,
	aggregator *analysis.Aggregator,
	extractor *analysis.Extractor,
	patterns cache.PatternCache,
	elements cache.ElementCache,
	logger *zap.Logger,
) *PatternService {
	return &PatternService{
		patternRepo:  patternRepo,
		responseRepo: responseRepo,
		movieRepo:    movieRepo,
		aggregator:   aggregator,
		extractor:    extractor,
		patterns:     patterns,
		elements:     elements,
		logger:       logger,
	}
}

// DetectAndStore re-runs pattern detection over every recorded reflection
// and replaces the stored set with the result. Prior feedback survives the
// replace: confirmed patterns keep their boost through the aggregator, and
// rejected ones ride along as tombstones so their element stays suppressed
// on the next run. Returns the detected (visible) patterns.
func (s *PatternService) DetectAndStore(ctx context.Context) ([]*model.Pattern, error) {
	responses, err := s.responseRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	movieCount, err := s.movieRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}

	prior, err := s.patternRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prior patterns: %w", err)
	}

	detected := s.aggregator.DetectPatterns(responses, int(movieCount), prior)

	// The aggregator drops rejected elements from its output, so appending
	// the tombstones never duplicates an element.
	stored := make([]*model.Pattern, 0, len(detected))
	stored = append(stored, detected...)
	for _, p := range prior {
		if p.Validated != nil && !*p.Validated {
			stored = append(stored, p)
		}
	}

	if err := s.patternRepo.ReplaceAll(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store patterns: %w", err)
	}

	// Re-read for the fresh ObjectIDs before caching.
	fresh, err := s.patternRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload patterns: %w", err)
	}
	if err := s.patterns.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate pattern cache", zap.Error(err))
	}
	if err := s.patterns.SetPatterns(ctx, fresh); err != nil {
		s.logger.Warn("failed to cache patterns", zap.Error(err))
	}

	// Element leaderboard rebuild from the full corpus.
	counts := make(map[string]int)
	for _, r := range responses {
		for _, match := range s.extractor.ExtractElements(r.Text) {
			counts[match.Key]++
		}
	}
	if err := s.elements.Rebuild(ctx, counts); err != nil {
		s.logger.Warn("failed to rebuild element leaderboard", zap.Error(err))
	}

	patternRunsTotal.Inc()
	patternsDetected.Set(float64(len(detected)))

	s.logger.Info("pattern detection completed",
		zap.Int("responses", len(responses)),
		zap.Int64("movies", movieCount),
		zap.Int("patterns", len(detected)))

	return detected, nil
}

// List returns the stored pattern set, cache first.
func (s *PatternService) List(ctx context.Context) ([]*model.Pattern, error) {
	cached, err := s.patterns.GetPatterns(ctx)
	if err != nil {
		s.logger.Warn("pattern cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	patterns, err := s.patternRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}

	if err := s.patterns.SetPatterns(ctx, patterns); err != nil {
		s.logger.Warn("failed to cache patterns", zap.Error(err))
	}
	return patterns, nil
}

// Get returns one pattern by ID.
func (s *PatternService) Get(ctx context.Context, id string) (*model.Pattern, error) {
	pattern, err := s.patternRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}
	return pattern, nil
}

// Validate records confirm/reject feedback on a pattern. Confirmation boosts
// its confidence on the next detection run; rejection suppresses the element
// until the user changes their mind.
func (s *PatternService) Validate(ctx context.Context, id string, confirmed bool) (*model.Pattern, error) {
	pattern, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.patternRepo.SetValidated(ctx, id, confirmed); err != nil {
		return nil, fmt.Errorf("failed to set validation: %w", err)
	}
	pattern.Validated = &confirmed

	if err := s.patterns.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate pattern cache", zap.Error(err))
	}

	s.logger.Info("pattern feedback recorded",
		zap.String("patternId", id),
		zap.String("element", pattern.Element),
		zap.Bool("confirmed", confirmed))

	return pattern, nil
}
