// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	SQLitePath      string        `mapstructure:"SQLITE_PATH"`
	ReportAPIURL    string        `mapstructure:"REPORT_API_URL"`
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	CerebrasAPIKey  string        `mapstructure:"CEREBRAS_API_KEY"`
	GeminiBaseURL   string        `mapstructure:"GEMINI_BASE_URL"`
	CerebrasBaseURL string        `mapstructure:"CEREBRAS_BASE_URL"`
	PaceDelay       time.Duration `mapstructure:"PACE_DELAY"`
	PaceRPS         float64       `mapstructure:"PACE_RPS"`
	PaceBurst       int           `mapstructure:"PACE_BURST"`
	PromptDir       string        `mapstructure:"PROMPT_DIR"`
	ModelsFile      string        `mapstructure:"MODELS_FILE"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "SQLITE_PATH", "REPORT_API_URL",
	"GEMINI_API_KEY", "CEREBRAS_API_KEY", "GEMINI_BASE_URL", "CEREBRAS_BASE_URL",
	"PACE_DELAY", "PACE_RPS", "PACE_BURST", "PROMPT_DIR", "MODELS_FILE", "REQUEST_TIMEOUT",
}

// Load reads configuration. Values in the process environment win over .env.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SQLITE_PATH", "data/labqc.db")
	v.SetDefault("PACE_DELAY", "800ms")
	v.SetDefault("PACE_RPS", 0)
	v.SetDefault("PACE_BURST", 1)
	v.SetDefault("PROMPT_DIR", "resources/prompts")
	v.SetDefault("MODELS_FILE", "config/models.yaml")
	v.SetDefault("REQUEST_TIMEOUT", "120s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.CerebrasAPIKey = strings.TrimSpace(cfg.CerebrasAPIKey)
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesPostgres reports whether the archive is backed by Postgres rather
// than the local SQLite file.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the configuration can run the server.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.ReportAPIURL == "" {
		return fmt.Errorf("REPORT_API_URL is required")
	}
	if !strings.HasPrefix(c.ReportAPIURL, "http://") && !strings.HasPrefix(c.ReportAPIURL, "https://") {
		return fmt.Errorf("REPORT_API_URL must be an http(s) URL, got %q", c.ReportAPIURL)
	}
	if !c.UsesPostgres() && c.SQLitePath == "" {
		return fmt.Errorf("either DATABASE_URL or SQLITE_PATH must be set")
	}
	if c.PaceDelay < 0 {
		return fmt.Errorf("PACE_DELAY must not be negative")
	}
	if c.PaceRPS < 0 {
		return fmt.Errorf("PACE_RPS must not be negative")
	}
	if c.PaceRPS > 0 && c.PaceBurst < 1 {
		return fmt.Errorf("PACE_BURST must be at least 1 when PACE_RPS is set")
	}
	return nil
}
