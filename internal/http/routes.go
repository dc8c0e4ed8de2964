package http

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/postscore/internal/ws"
	"github.com/sujalbistaa/postscore/web"
)

// RouteConfig holds the settings the router needs beyond Env.
type RouteConfig struct {
	CORSOrigin     string
	AdminToken     string
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRoutes configures all application routes and middleware. Background
// work started here stops when ctx is done.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, cfg RouteConfig) error {

	// --- Middleware ---
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(env.Metrics.Middleware())

	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: corsOrigin != "*",
	}))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	go limiter.Sweep(ctx, 10*time.Minute, 10*time.Minute)

	if cfg.AdminToken == "" {
		env.Log.Warn("X_ADMIN_TOKEN not set, admin endpoints will refuse every request")
	}

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.POST("/score_post", RateLimitMiddleware(limiter), env.ScorePost)
		api.GET("/scores", env.GetRecentScores)
		api.DELETE("/scores/:id", AdminAuthMiddleware(cfg.AdminToken), env.HideScore)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if env.Metrics != nil {
		router.GET("/metrics", env.Metrics.Handler())
	}

	// --- WebSocket Route ---
	if env.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(env.Hub, c.Writer, c.Request)
		})
	}

	// --- Serve Frontend ---
	assets := web.Static()
	index, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		return err
	}
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.StaticFS("/static", http.FS(assets))
	return nil
}
