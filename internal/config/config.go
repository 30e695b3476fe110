package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client needs to talk to its collaborators.
type Config struct {
	APIBaseURL     string
	APIToken       string
	TMDBAPIKey     string
	CachePath      string
	Auth0Domain    string
	Auth0Audience  string
	PlexToken      string
	RequestTimeout time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// if one is present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     getEnv("WATCHLOG_API_URL", "https://api.watchlog.app"),
		APIToken:       getEnv("WATCHLOG_API_TOKEN", ""),
		TMDBAPIKey:     getEnv("TMDB_API_KEY", ""),
		CachePath:      getEnv("WATCHLOG_CACHE_PATH", "./watchlog-cache.db"),
		Auth0Domain:    getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:  getEnv("AUTH0_AUDIENCE", ""),
		PlexToken:      getEnv("PLEX_TOKEN", ""),
		RequestTimeout: 10 * time.Second,
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("WATCHLOG_API_TOKEN environment variable is required")
	}
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
