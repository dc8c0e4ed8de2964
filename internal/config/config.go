package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port       string
	CORSOrigin string
	AdminToken string
	LogLevel   string

	// Database
	DatabaseURL string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Redis score cache, disabled when RedisURL is empty
	RedisURL      string
	ScoreCacheTTL time.Duration

	// Limits
	MaxImageBytes  int64
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		AdminToken: getEnv("X_ADMIN_TOKEN", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", "sqlite://postscore.db"),

		GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		RedisURL: getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.ScoreCacheTTL, err = time.ParseDuration(getEnv("SCORE_CACHE_TTL", "1h")); err != nil {
		return nil, err
	}
	if cfg.MaxImageBytes, err = strconv.ParseInt(getEnv("MAX_IMAGE_BYTES", "5242880"), 10, 64); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "0.5"), 64); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "3")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
