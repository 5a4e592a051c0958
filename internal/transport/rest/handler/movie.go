package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tastetrail/internal/model"
	"tastetrail/internal/service"
)

// MovieHandler handles journal entry endpoints
type MovieHandler struct {
	movieSvc *service.MovieService
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(movieSvc *service.MovieService) *MovieHandler {
	return &MovieHandler{movieSvc: movieSvc}
}

// Create handles POST /v1/movies
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.movieSvc.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// List handles GET /v1/movies
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieSvc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// Get handles GET /v1/movies/{movieId}
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieId"]

	movie, err := h.movieSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// Update handles PUT /v1/movies/{movieId}
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieId"]

	var req model.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.movieSvc.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// Delete handles DELETE /v1/movies/{movieId}
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieId"]

	if err := h.movieSvc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
