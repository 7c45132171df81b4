package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	AllowedOrigins []string

	DatabaseURL string

	TriviaAPIURL string
	PostsAPIURL  string

	OpsPasswordHash string // argon2id hash of the ops password
	JWTSecret       string
	JWTMaxAge       time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TriviaAPIURL:    getEnv("TRIVIA_API_URL", "https://opentdb.example.com/api"),
		PostsAPIURL:     getEnv("POSTS_API_URL", "https://posts.example.com/api"),
		OpsPasswordHash: getEnv("OPS_PASSWORD_HASH", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTMaxAge:       time.Hour * 12,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
