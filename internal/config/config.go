package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// RetryPolicy controls how outbound Riot API calls are retried on rate
// limiting and server errors.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type Config struct {
	RiotAPIKey  string
	RiotBaseURL string // empty means https://{routing}.api.riotgames.com
	DDragonURL  string
	DBPath      string
	ServerPort  string
	LogLevel    string

	MatchWorkers  int
	RatePerSecond float64
	RateBurst     int
	Retry         RetryPolicy

	ReferenceRefreshSpec string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:  getEnv("RIOT_API_KEY", ""),
		RiotBaseURL: getEnv("RIOT_BASE_URL", ""),
		DDragonURL:  getEnv("DDRAGON_BASE_URL", "https://ddragon.leagueoflegends.com"),
		DBPath:      getEnv("DB_PATH", "analytics.db"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		ReferenceRefreshSpec: getEnv("REFERENCE_REFRESH_SPEC", "@hourly"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	var err error
	if cfg.MatchWorkers, err = getEnvInt("MATCH_WORKERS", 20); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getEnvInt("RIOT_RATE_BURST", 20); err != nil {
		return nil, err
	}
	rate, err := getEnvInt("RIOT_RATE_PER_SECOND", 20)
	if err != nil {
		return nil, err
	}
	cfg.RatePerSecond = float64(rate)

	maxRetries, err := getEnvInt("RIOT_RETRY_MAX", 3)
	if err != nil {
		return nil, err
	}
	cfg.Retry.MaxRetries = uint64(maxRetries)
	if cfg.Retry.BaseDelay, err = getEnvDuration("RIOT_RETRY_BASE", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxDelay, err = getEnvDuration("RIOT_RETRY_CAP", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.MatchWorkers < 1 {
		return nil, fmt.Errorf("MATCH_WORKERS must be positive, got %d", cfg.MatchWorkers)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("match_workers", cfg.MatchWorkers).
		Float64("rate_per_second", cfg.RatePerSecond).
		Uint64("retry_max", cfg.Retry.MaxRetries).
		Str("reference_refresh", cfg.ReferenceRefreshSpec).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
