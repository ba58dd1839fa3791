package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env string

	// Database URLs
	PostgresURL   string
	RedisURL      string
	ClickHouseURL string

	// Base rating engine
	KFactor         float64
	HomeAdvantage   float64
	MeanRating      float64
	ReversionFactor float64
	LeagueAvgTotal  float64

	// Recent-form overlay
	RecentGamesWeight float64
	GamesToConsider   int
	MomentumFactor    float64
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "development"),

		// Optional backends: empty disables the ratings cache / stats feed.
		RedisURL:      getEnv("REDIS_URL", ""),
		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),

		KFactor:         getEnvFloat("K_FACTOR", 32.0),
		HomeAdvantage:   getEnvFloat("HOME_ADVANTAGE", 65.0),
		MeanRating:      getEnvFloat("MEAN_RATING", 1500.0),
		ReversionFactor: getEnvFloat("REVERSION_FACTOR", 0.25),
		LeagueAvgTotal:  getEnvFloat("LEAGUE_AVG_TOTAL", 45.6),

		RecentGamesWeight: getEnvFloat("RECENT_GAMES_WEIGHT", 0.3),
		GamesToConsider:   getEnvInt("GAMES_TO_CONSIDER", 3),
		MomentumFactor:    getEnvFloat("MOMENTUM_FACTOR", 50),
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
