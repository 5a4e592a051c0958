package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tastetrail/internal/model"
	"tastetrail/internal/service"
)

// SessionHandler handles reflection session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	insightSvc *service.InsightService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, insightSvc *service.InsightService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, insightSvc: insightSvc}
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, first, err := h.sessionSvc.Start(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoMovies):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrMovieNotFound):
			writeError(w, http.StatusNotFound, "movie not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session":       session,
		"firstQuestion": first,
	})
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	session, err := h.sessionSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// CurrentQuestion handles GET /v1/sessions/{sessionId}/question
func (h *SessionHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	envelope, err := h.sessionSvc.CurrentQuestion(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope)
}

// Submit handles POST /v1/sessions/{sessionId}/reflections
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	var req model.SubmitReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.sessionSvc.Submit(r.Context(), id, &req)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Skip handles POST /v1/sessions/{sessionId}/skip
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	result, err := h.sessionSvc.Skip(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Complete handles POST /v1/sessions/{sessionId}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	session, err := h.sessionSvc.Complete(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Abandon handles POST /v1/sessions/{sessionId}/abandon
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	session, err := h.sessionSvc.Abandon(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Insight handles GET /v1/sessions/{sessionId}/insight
func (h *SessionHandler) Insight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	insight, err := h.insightSvc.SessionInsight(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, insight)
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrSessionNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoQuestionPending):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
