package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tastetrail/config"
	"tastetrail/internal/analysis"
	"tastetrail/internal/cache"
	"tastetrail/internal/logging"
	"tastetrail/internal/questions"
	"tastetrail/internal/repository"
	"tastetrail/internal/service"
	"tastetrail/internal/transport/rest"
	"tastetrail/internal/transport/ws"
)

// @title TasteTrail API
// @version 1.0
// @description Film reflection journal with taste pattern detection
// @host localhost:8080
// @BasePath /v1
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("Failed to ping Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// WebSocket hub
	wsHub := ws.NewHub()

	// Question bank
	bank, err := questions.Load()
	if err != nil {
		logger.Fatal("Failed to load question bank", zap.Error(err))
	}

	// Analysis engine
	lexicon := analysis.NewLexicon()
	classifier := analysis.NewClassifier(lexicon)
	extractor := analysis.NewExtractor(lexicon)
	aggregator := analysis.NewAggregator(lexicon, analysis.RandomPick)

	// Repositories
	movieRepo := repository.NewMovieRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	patternRepo := repository.NewPatternRepo(db)

	// Caches
	attemptCache := cache.NewAttemptCache(rdb)
	patternCache := cache.NewPatternCache(rdb)
	elementCache := cache.NewElementCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.Auth)
	metadataSvc := service.NewMetadataService(cfg.TMDB, logger)
	if metadataSvc.IsEnabled() {
		logger.Info("TMDB metadata enrichment enabled")
	} else {
		logger.Info("TMDB API key not set, metadata enrichment disabled")
	}
	movieSvc := service.NewMovieService(movieRepo, responseRepo, metadataSvc, logger)
	patternSvc := service.NewPatternService(patternRepo, responseRepo, movieRepo, aggregator, extractor, patternCache, elementCache, logger)
	sessionSvc := service.NewSessionService(sessionRepo, movieRepo, responseRepo, attemptCache, elementCache, bank, classifier, extractor, logger)
	insightSvc := service.NewInsightService(movieRepo, sessionRepo, responseRepo, patternSvc, patternCache, elementCache, extractor, logger)
	exportSvc := service.NewExportService(movieRepo, sessionRepo, responseRepo, patternRepo)

	// Wire cross-service deps (after construction to avoid cycles)
	sessionSvc.SetPatternService(patternSvc)
	sessionSvc.SetBroadcaster(wsHub)

	// Router
	container := &rest.Container{
		Config:         cfg,
		AuthService:    authSvc,
		MovieService:   movieSvc,
		SessionService: sessionSvc,
		PatternService: patternSvc,
		InsightService: insightSvc,
		ExportService:  exportSvc,
		WSHub:          wsHub,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
