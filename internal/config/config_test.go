package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "")
	t.Setenv("AUTH_LOGIN_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "/api/v1/auth/login", cfg.Auth.LoginPath)
	assert.Equal(t, 5*time.Minute, cfg.Cart.CacheTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "s3cr3t")
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "90")
	t.Setenv("AUTH_LOGIN_PATH", "/login")
	t.Setenv("CART_CACHE_TTL_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, "/login", cfg.Auth.LoginPath)
	assert.Equal(t, time.Duration(0), cfg.Cart.CacheTTL())
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "not-a-number")
	assert.Equal(t, 1440, getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 1440))
}
