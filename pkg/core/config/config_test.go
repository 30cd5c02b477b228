package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORT_API_URL", "http://lis.local/api")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 800*time.Millisecond, cfg.PaceDelay)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "config/models.yaml", cfg.ModelsFile)
	assert.False(t, cfg.UsesPostgres())
	assert.True(t, cfg.IsDev())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORT_API_URL", "https://lis.local/api")
	t.Setenv("DATABASE_URL", "postgres://qc:qc@localhost:5432/qc")
	t.Setenv("GEMINI_API_KEY", "  g-key \n")
	t.Setenv("PACE_DELAY", "2s")
	t.Setenv("PACE_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, 2*time.Second, cfg.PaceDelay)
	assert.Equal(t, 0.5, cfg.PaceRPS)
	assert.True(t, cfg.UsesPostgres())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Port: "8080", ReportAPIURL: "http://lis", SQLitePath: "x.db", PaceBurst: 1}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.ReportAPIURL = ""
	assert.ErrorContains(t, c.Validate(), "REPORT_API_URL")

	c = base()
	c.ReportAPIURL = "lis.local"
	assert.ErrorContains(t, c.Validate(), "http(s)")

	c = base()
	c.SQLitePath = ""
	assert.Error(t, c.Validate())

	c = base()
	c.PaceRPS = 2
	c.PaceBurst = 0
	assert.ErrorContains(t, c.Validate(), "PACE_BURST")

	c = base()
	c.PaceDelay = -time.Second
	assert.Error(t, c.Validate())
}
