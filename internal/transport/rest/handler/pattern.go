package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tastetrail/internal/model"
	"tastetrail/internal/service"
)

// PatternHandler handles taste pattern endpoints
type PatternHandler struct {
	patternSvc *service.PatternService
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(patternSvc *service.PatternService) *PatternHandler {
	return &PatternHandler{patternSvc: patternSvc}
}

// List handles GET /v1/patterns
func (h *PatternHandler) List(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.patternSvc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, patterns)
}

// Detect handles POST /v1/patterns/detect
func (h *PatternHandler) Detect(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.patternSvc.DetectAndStore(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, patterns)
}

// Get handles GET /v1/patterns/{patternId}
func (h *PatternHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["patternId"]

	pattern, err := h.patternSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPatternNotFound) {
			writeError(w, http.StatusNotFound, "pattern not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pattern)
}

// Validate handles POST /v1/patterns/{patternId}/validate
func (h *PatternHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["patternId"]

	var req model.ValidatePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pattern, err := h.patternSvc.Validate(r.Context(), id, req.Confirmed)
	if err != nil {
		if errors.Is(err, service.ErrPatternNotFound) {
			writeError(w, http.StatusNotFound, "pattern not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pattern)
}
