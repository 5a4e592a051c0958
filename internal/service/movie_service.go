package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tastetrail/internal/model"
	"tastetrail/internal/repository"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrTitleRequired = errors.New("movie title is required")
)

// MovieService manages journal entries. TMDB enrichment runs in the
// background so creating an entry never waits on the network.
type MovieService struct {
	movieRepo    repository.MovieRepo
	responseRepo repository.ResponseRepo
	metadata     *MetadataService
	logger       *zap.Logger
}

// NewMovieService creates a new movie service
func NewMovieService(
	movieRepo repository.MovieRepo,
	responseRepo repository.ResponseRepo,
	metadata *MetadataService,
	logger *zap.Logger,
) *MovieService {
	return &MovieService{
		movieRepo:    movieRepo,
		responseRepo: responseRepo,
		metadata:     metadata,
		logger:       logger,
	}
}

// Create adds a movie to the journal and kicks off metadata enrichment.
func (s *MovieService) Create(ctx context.Context, req *model.CreateMovieRequest) (*model.Movie, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	movie := &model.Movie{
		Title:        title,
		Year:         req.Year,
		Genres:       req.Genres,
		WatchedAt:    req.WatchedAt,
		WatchContext: req.WatchContext,
		CreatedAt:    time.Now(),
	}

	id, err := s.movieRepo.Create(ctx, movie)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	movie.ID = id

	// ASYNC ENRICHMENT
	if s.metadata.IsEnabled() {
		go func(asyncCtx context.Context, m model.Movie) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("recovered from panic in movie enrichment",
						zap.String("movieId", m.ID),
						zap.Any("panic", r))
				}
			}()
			s.enrich(asyncCtx, &m)
		}(context.Background(), *movie)
	}

	return movie, nil
}

// enrich fills missing metadata from TMDB. Fields the user entered by hand
// are never overwritten.
func (s *MovieService) enrich(ctx context.Context, movie *model.Movie) {
	meta, err := s.metadata.Lookup(ctx, movie.Title, movie.Year)
	if err != nil {
		s.logger.Warn("tmdb lookup failed",
			zap.String("movieId", movie.ID),
			zap.String("title", movie.Title),
			zap.Error(err))
		return
	}
	if meta == nil {
		return
	}

	movie.TMDBID = meta.TMDBID
	movie.PosterURL = meta.PosterURL
	movie.Overview = meta.Overview
	movie.Director = meta.Director
	if movie.Year == 0 {
		movie.Year = meta.Year
	}
	if len(movie.Genres) == 0 {
		movie.Genres = meta.Genres
	}

	if err := s.movieRepo.Update(ctx, movie); err != nil {
		s.logger.Error("failed to save enriched movie",
			zap.String("movieId", movie.ID),
			zap.Error(err))
		return
	}

	s.logger.Info("movie enriched from tmdb",
		zap.String("movieId", movie.ID),
		zap.Int64("tmdbId", meta.TMDBID))
}

// Get returns one movie by ID.
func (s *MovieService) Get(ctx context.Context, id string) (*model.Movie, error) {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}
	return movie, nil
}

// List returns all journal entries, newest first.
func (s *MovieService) List(ctx context.Context) ([]*model.Movie, error) {
	return s.movieRepo.List(ctx)
}

// Update applies the provided fields to a movie.
func (s *MovieService) Update(ctx context.Context, id string, req *model.UpdateMovieRequest) (*model.Movie, error) {
	movie, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		movie.Title = title
	}
	if req.Year != nil {
		movie.Year = *req.Year
	}
	if req.Genres != nil {
		movie.Genres = req.Genres
	}
	if req.WatchedAt != nil {
		movie.WatchedAt = req.WatchedAt
	}
	if req.WatchContext != nil {
		movie.WatchContext = *req.WatchContext
	}

	if err := s.movieRepo.Update(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	return movie, nil
}

// Delete removes a movie and every reflection recorded for it. Patterns keep
// referencing the old ID until the next detection run rebuilds them.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get movie: %w", err)
	}
	if movie == nil {
		return ErrMovieNotFound
	}

	if err := s.responseRepo.DeleteByMovie(ctx, id); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if err := s.movieRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	s.logger.Info("movie deleted", zap.String("movieId", id), zap.String("title", movie.Title))
	return nil
}
