package model

import "time"

// Movie is a film in the journal. Metadata fields beyond title/year are
// filled in by TMDB enrichment when a key is configured.
type Movie struct {
	ID             string     `json:"id" bson:"_id,omitempty"`
	Title          string     `json:"title" bson:"title"`
	Year           int        `json:"year,omitempty" bson:"year,omitempty"`
	Genres         []string   `json:"genres,omitempty" bson:"genres,omitempty"`
	WatchedAt      *time.Time `json:"watchedAt,omitempty" bson:"watchedAt,omitempty"`
	WatchContext   string     `json:"watchContext,omitempty" bson:"watchContext,omitempty"`
	TMDBID         int64      `json:"tmdbId,omitempty" bson:"tmdbId,omitempty"`
	PosterURL      string     `json:"posterUrl,omitempty" bson:"posterUrl,omitempty"`
	Overview       string     `json:"overview,omitempty" bson:"overview,omitempty"`
	Director       string     `json:"director,omitempty" bson:"director,omitempty"`
	LastAnalyzedAt *time.Time `json:"lastAnalyzedAt,omitempty" bson:"lastAnalyzedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
}

type CreateMovieRequest struct {
	Title        string     `json:"title"`
	Year         int        `json:"year,omitempty"`
	Genres       []string   `json:"genres,omitempty"`
	WatchedAt    *time.Time `json:"watchedAt,omitempty"`
	WatchContext string     `json:"watchContext,omitempty"`
}

type UpdateMovieRequest struct {
	Title        *string    `json:"title,omitempty"`
	Year         *int       `json:"year,omitempty"`
	Genres       []string   `json:"genres,omitempty"`
	WatchedAt    *time.Time `json:"watchedAt,omitempty"`
	WatchContext *string    `json:"watchContext,omitempty"`
}

// MovieMetadata is what the TMDB client returns for one film.
type MovieMetadata struct {
	TMDBID    int64    `json:"tmdbId"`
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	PosterURL string   `json:"posterUrl,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Director  string   `json:"director,omitempty"`
	Runtime   int      `json:"runtime,omitempty"`
}
