package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sujalbistaa/postscore/internal/config"
	"github.com/sujalbistaa/postscore/internal/db"
	routes "github.com/sujalbistaa/postscore/internal/http"
	"github.com/sujalbistaa/postscore/internal/logging"
	"github.com/sujalbistaa/postscore/internal/scoring"
	"github.com/sujalbistaa/postscore/internal/ws"
)

func main() {
	// 1. Load configuration (.env first, then the environment)
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger("info").Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database
	database, err := db.Init(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Info("Running database migrations...")
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 3. Initialize the scorer. Without a key the service still serves the
	// page and answers score requests with 503.
	metrics := routes.NewMetrics()
	var scorer scoring.Scorer
	gemini, err := scoring.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	switch {
	case errors.Is(err, scoring.ErrUnavailable):
		log.Warn("GOOGLE_GEMINI_API_KEY not found in environment variables. AI scoring will not work.")
	case err != nil:
		log.WithError(err).Error("Error configuring Gemini API")
	default:
		scorer = gemini
	}

	var redisClient *redis.Client
	if scorer != nil && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis not reachable, score cache will retry per request")
		}
		scorer = scoring.NewCachedScorer(scorer, redisClient, cfg.ScoreCacheTTL, log, metrics.CacheHooks())
		log.Info("Score cache enabled")
	}

	// 4. Initialize WebSocket Hub
	hub := ws.NewHub(log)
	go hub.Run()

	// 5. Setup Routes
	router := gin.New()
	env := &routes.Env{
		DB:            database,
		Hub:           hub,
		Scorer:        scorer,
		Log:           log,
		Metrics:       metrics,
		MaxImageBytes: cfg.MaxImageBytes,
	}
	if err := routes.SetupRoutes(ctx, router, env, routes.RouteConfig{
		CORSOrigin:     cfg.CORSOrigin,
		AdminToken:     cfg.AdminToken,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s", err)
		}
	}()

	// Block until a signal is received
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	hub.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorf("Error closing Redis: %v", err)
		}
	}
	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Errorf("Error closing database: %v", err)
		}
	}

	log.Info("Server exiting")
	os.Exit(0)
}
