package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snaplink/snaplink/pkg/config"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_CAPACITY", "250")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ALLOWED_EMAILS", "a@example.com, b@example.com")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250, cfg.CacheCapacity)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AllowedEmails)
}

func TestLoad_NonPositiveCountsFallBack(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "0")
	t.Setenv("GEN_MAX_ATTEMPTS", "-3")

	cfg := config.Load()

	assert.Equal(t, 100, cfg.CacheCapacity, "a zero-capacity cache is never meaningful")
	assert.Equal(t, 5, cfg.GenMaxAttempts)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "lots")
	t.Setenv("SESSION_TTL", "soon")

	cfg := config.Load()

	assert.Equal(t, 100, cfg.CacheCapacity)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}
