package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tastetrail/config"
	"tastetrail/internal/model"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// MetadataService wraps TMDB API calls. Without an API key every lookup is a
// quiet no-op, so the journal works fully offline.
type MetadataService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewMetadataService creates a new TMDB client
func NewMetadataService(cfg config.TMDBConfig, logger *zap.Logger) *MetadataService {
	if cfg.APIKey == "" {
		logger.Info("tmdb api key not set, metadata enrichment disabled")
	}

	return &MetadataService{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxRetries: 3,
		logger:     logger,
	}
}

// IsEnabled reports whether an API key is configured.
func (s *MetadataService) IsEnabled() bool {
	return s.apiKey != ""
}

// tmdbSearchResponse is the API response for movie search
type tmdbSearchResponse struct {
	Results      []tmdbSearchResult `json:"results"`
	TotalResults int                `json:"total_results"`
}

// tmdbSearchResult is a single match in search results
type tmdbSearchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// tmdbMovieDetails is the full movie record
type tmdbMovieDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	Runtime     int    `json:"runtime"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// tmdbCredits is the cast and crew listing
type tmdbCredits struct {
	Crew []struct {
		Job  string `json:"job"`
		Name string `json:"name"`
	} `json:"crew"`
}

// Search returns candidate matches for a title. Disabled client returns
// (nil, nil).
func (s *MetadataService) Search(ctx context.Context, title string, year int) ([]*model.MovieMetadata, error) {
	if !s.IsEnabled() {
		s.logger.Debug("tmdb disabled, skipping search", zap.String("title", title))
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp tmdbSearchResponse
	if err := s.doGet(ctx, "/search/movie", params, &resp); err != nil {
		metadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search movie: %w", err)
	}

	results := make([]*model.MovieMetadata, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, &model.MovieMetadata{
			TMDBID:    r.ID,
			Title:     r.Title,
			Year:      yearOf(r.ReleaseDate),
			Overview:  r.Overview,
			PosterURL: posterURL(r.PosterPath),
		})
	}
	return results, nil
}

// Lookup returns the best match for a title with genres, runtime and director
// resolved, or nil when nothing matches.
func (s *MetadataService) Lookup(ctx context.Context, title string, year int) (*model.MovieMetadata, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var search tmdbSearchResponse
	if err := s.doGet(ctx, "/search/movie", params, &search); err != nil {
		metadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search movie: %w", err)
	}
	if len(search.Results) == 0 {
		metadataLookupsTotal.WithLabelValues("miss").Inc()
		s.logger.Debug("tmdb search returned no results", zap.String("title", title))
		return nil, nil
	}

	// TMDB orders by relevance; the first result is the canonical match in
	// practice.
	best := search.Results[0]

	var details tmdbMovieDetails
	if err := s.doGet(ctx, fmt.Sprintf("/movie/%d", best.ID), nil, &details); err != nil {
		metadataLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("movie details: %w", err)
	}

	meta := &model.MovieMetadata{
		TMDBID:    details.ID,
		Title:     details.Title,
		Year:      yearOf(details.ReleaseDate),
		Overview:  details.Overview,
		PosterURL: posterURL(details.PosterPath),
		Runtime:   details.Runtime,
	}
	for _, g := range details.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}

	var credits tmdbCredits
	if err := s.doGet(ctx, fmt.Sprintf("/movie/%d/credits", best.ID), nil, &credits); err != nil {
		// Director is nice to have, not worth failing the lookup.
		s.logger.Warn("tmdb credits lookup failed", zap.Int64("tmdbId", best.ID), zap.Error(err))
	} else {
		for _, c := range credits.Crew {
			if c.Job == "Director" {
				meta.Director = c.Name
				break
			}
		}
	}

	metadataLookupsTotal.WithLabelValues("hit").Inc()
	return meta, nil
}

// doGet performs a GET request with retry on rate limiting
func (s *MetadataService) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", s.apiKey)
	reqURL := s.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			s.logger.Warn("tmdb rate limited",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			lastErr = fmt.Errorf("rate limited")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("tmdb API error %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse tmdb response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func yearOf(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}
