package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	FrontendURL string

	JWTSecret     string
	SessionTTL    time.Duration
	AllowedEmails []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CacheCapacity int
	CacheTTL      time.Duration

	GenMaxAttempts   int
	GenLookupTimeout time.Duration

	Retention time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:snaplink.sqlite"),
		AppEnv:      getEnv("APP_ENV", "local"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8080"),

		JWTSecret:     getEnv("JWT_SECRET", "snaplink_dev_secret"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		AllowedEmails: getEnvList("ALLOWED_EMAILS"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		CacheCapacity: getEnvPositiveInt("CACHE_CAPACITY", 100),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),

		GenMaxAttempts:   getEnvPositiveInt("GEN_MAX_ATTEMPTS", 5),
		GenLookupTimeout: getEnvDuration("GEN_LOOKUP_TIMEOUT", time.Second),

		Retention: getEnvDuration("RETENTION", 90*24*time.Hour),
	}
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvPositiveInt is getEnvInt for settings where zero or a negative
// value is never meaningful; those fall back too.
func getEnvPositiveInt(key string, fallback int) int {
	if n := getEnvInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
