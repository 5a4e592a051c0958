package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tastetrail/config"
	"tastetrail/internal/service"
	"tastetrail/internal/transport/rest/handler"
	"tastetrail/internal/transport/rest/middleware"
	"tastetrail/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config         *config.Config
	AuthService    *service.AuthService
	MovieService   *service.MovieService
	SessionService *service.SessionService
	PatternService *service.PatternService
	InsightService *service.InsightService
	ExportService  *service.ExportService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	movieHandler := handler.NewMovieHandler(c.MovieService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.InsightService)
	patternHandler := handler.NewPatternHandler(c.PatternService)
	insightHandler := handler.NewInsightHandler(c.InsightService, c.ExportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first, then request metrics
	r.Use(corsMiddleware(c.Config.CORS))
	r.Use(metricsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.SessionWS).Methods("GET")

	// Health check and metrics
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated routes
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireUser)

	api.HandleFunc("/movies", movieHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/movies", movieHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/movies/{movieId}", movieHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/movies/{movieId}", movieHandler.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/movies/{movieId}", movieHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/question", sessionHandler.CurrentQuestion).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/reflections", sessionHandler.Submit).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/skip", sessionHandler.Skip).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/complete", sessionHandler.Complete).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/abandon", sessionHandler.Abandon).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/insight", sessionHandler.Insight).Methods("GET", "OPTIONS")

	api.HandleFunc("/patterns", patternHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/patterns/detect", patternHandler.Detect).Methods("POST", "OPTIONS")
	api.HandleFunc("/patterns/{patternId}", patternHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/patterns/{patternId}/validate", patternHandler.Validate).Methods("POST", "OPTIONS")

	api.HandleFunc("/insights/summary", insightHandler.TasteSummary).Methods("GET", "OPTIONS")
	api.HandleFunc("/export", insightHandler.Export).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	origins := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
