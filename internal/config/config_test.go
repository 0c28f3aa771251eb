package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1, cfg.DBMaxOpenConns)
	assert.InDelta(t, 0.10, cfg.TaxRate, 1e-9)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.True(t, cfg.CSRFEnabled)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PETSHOP_PORT", "9090")
	t.Setenv("PETSHOP_TAX_RATE", "0.05")
	t.Setenv("PETSHOP_ENV", "PROD")
	t.Setenv("PETSHOP_RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.InDelta(t, 0.05, cfg.TaxRate, 1e-9)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoad_RejectsBadTaxRate(t *testing.T) {
	t.Setenv("PETSHOP_TAX_RATE", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tax rate")
}

func TestLoad_RejectsBadSnowflakeNode(t *testing.T) {
	t.Setenv("PETSHOP_SNOWFLAKE_NODE", "4096")

	_, err := Load()
	require.Error(t, err)
}
