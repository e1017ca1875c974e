package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	cfg := Load()

	// An empty but present variable wins over the fallback, same as os.LookupEnv.
	assert.Equal(t, "", cfg.App.Port)
	assert.Equal(t, "http://localhost:9000", cfg.Analysis.EngineURL)
	assert.Equal(t, 300*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 120*time.Second, cfg.Media.Timeout)
	assert.Equal(t, "memory", cfg.Session.Store)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("ANALYSIS_TIMEOUT_SECONDS", "12")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, 12*time.Second, cfg.Analysis.Timeout)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MEDIA_TIMEOUT_SECONDS", "soon")
	assert.Equal(t, 7, getEnvAsInt("MEDIA_TIMEOUT_SECONDS", 7))
}
