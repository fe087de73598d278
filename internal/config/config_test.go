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

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowOrigins)
	assert.Equal(t, int64(50<<20), cfg.Limits.MaxFileSize)
	assert.Equal(t, int64(1024), cfg.Limits.MinFileSize)
	assert.Equal(t, 8<<20, cfg.Limits.MaxTextBytes)
	assert.Equal(t, 0.6, cfg.Processing.ConfidenceThreshold)
	assert.Equal(t, 2024, cfg.Processing.FallbackYear)
	assert.False(t, cfg.Processing.Deduplicate)
	assert.True(t, cfg.Processing.Pdftotext)
	assert.False(t, cfg.Processing.OCR)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_PER_SECOND", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("DETECTION_CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("FALLBACK_STATEMENT_YEAR", "2025")
	t.Setenv("DEDUPLICATE_TRANSACTIONS", "true")
	t.Setenv("HISTORY_DRIVER", "sqlite")
	t.Setenv("HISTORY_DSN", "file:history.db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowOrigins)
	assert.Equal(t, 0.5, cfg.RateLimit.PerSecond)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, 0.8, cfg.Processing.ConfidenceThreshold)
	assert.Equal(t, 2025, cfg.Processing.FallbackYear)
	assert.True(t, cfg.Processing.Deduplicate)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ProductionLogFormat(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("LOG_FORMAT", "Console")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format, "an explicit LOG_FORMAT wins")
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("SERVER_WRITE_TIMEOUT", "soon")
	t.Setenv("DEDUPLICATE_TRANSACTIONS", "perhaps")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.False(t, cfg.Processing.Deduplicate)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown history driver", "HISTORY_DRIVER", "mysql"},
		{"threshold out of range", "DETECTION_CONFIDENCE_THRESHOLD", "3"},
		{"fallback year out of range", "FALLBACK_STATEMENT_YEAR", "1999"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"unknown environment", "APP_ENV", "staging"},
		{"non numeric port", "SERVER_PORT", "http"},
		{"min above max", "MIN_FILE_SIZE_BYTES", "104857600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoad_HistoryDriverNeedsDSN(t *testing.T) {
	t.Setenv("HISTORY_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
}
