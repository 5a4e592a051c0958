package service

import (
	"context"
	"fmt"
	"time"

	"tastetrail/internal/model"
	"tastetrail/internal/repository"
)

const exportVersion = "1"

// ExportService dumps the whole journal as a single JSON bundle.
type ExportService struct {
	movieRepo    repository.MovieRepo
	sessionRepo  repository.SessionRepo
	responseRepo repository.ResponseRepo
	patternRepo  repository.PatternRepo
}

// NewExportService creates a new export service
func NewExportService(
	movieRepo repository.MovieRepo,
	sessionRepo repository.SessionRepo,
	responseRepo repository.ResponseRepo,
	patternRepo repository.PatternRepo,
) *ExportService {
	return &ExportService{
		movieRepo:    movieRepo,
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		patternRepo:  patternRepo,
	}
}

// Export gathers every collection into one bundle.
func (s *ExportService) Export(ctx context.Context) (*model.ExportBundle, error) {
	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export movies: %w", err)
	}
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	responses, err := s.responseRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export responses: %w", err)
	}
	patterns, err := s.patternRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export patterns: %w", err)
	}

	return &model.ExportBundle{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Movies:     movies,
		Sessions:   sessions,
		Responses:  responses,
		Patterns:   patterns,
	}, nil
}
