package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup from .env.local / .env / the process
// environment, in that order of precedence.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration

	SendPerHour           int64
	PrivilegedSendPerHour int64
	MaxActiveThreads      int64
	APIRequestsPerMinute  int64
}

func Load() (*Config, error) {
	// Missing .env files are fine: plain environment variables still apply.
	if godotenv.Load(".env.local") != nil {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              24 * time.Hour,
		SendPerHour:           getEnvInt("SEND_PER_HOUR", 200),
		PrivilegedSendPerHour: getEnvInt("PRIVILEGED_SEND_PER_HOUR", 1000),
		MaxActiveThreads:      getEnvInt("MAX_ACTIVE_THREADS", 50),
		APIRequestsPerMinute:  getEnvInt("API_REQUESTS_PER_MINUTE", 300),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
