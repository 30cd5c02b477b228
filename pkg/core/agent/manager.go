// Package agent routes analysis requests to the configured model provider.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/llm"
	"labqc/pkg/core/metrics"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/report"
	"labqc/pkg/core/utils"
)

// Options configures provider clients and deployment-level keys.
type Options struct {
	// GeminiKey and CerebrasKey come from the environment and override keys
	// stored in settings.
	GeminiKey       string
	CerebrasKey     string
	GeminiBaseURL   string
	CerebrasBaseURL string
	Timeout         time.Duration
}

type Manager struct {
	catalog   Catalog
	opts      Options
	providers map[string]llm.Provider
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewManager(catalog Catalog, opts Options, logger zerolog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		catalog: catalog,
		opts:    opts,
		providers: map[string]llm.Provider{
			llm.ProviderGoogle:   &llm.GeminiProvider{BaseURL: opts.GeminiBaseURL},
			llm.ProviderCerebras: llm.NewCerebrasProvider(opts.CerebrasBaseURL, opts.Timeout),
		},
		logger:  logger.With().Str("component", "agent").Logger(),
		metrics: m,
	}
}

// SetProvider replaces the client for a provider name.
func (m *Manager) SetProvider(name string, p llm.Provider) {
	m.providers[name] = p
}

// Catalog returns the model catalog.
func (m *Manager) Catalog() Catalog {
	return m.catalog
}

// Validate coerces settings into the catalog.
func (m *Manager) Validate(s Settings) Settings {
	return m.catalog.Validate(s)
}

// credential resolves the key for provider: environment first, then settings.
func (m *Manager) credential(s Settings, provider string) string {
	var env string
	switch provider {
	case llm.ProviderGoogle:
		env = m.opts.GeminiKey
	case llm.ProviderCerebras:
		env = m.opts.CerebrasKey
	}
	if env = strings.TrimSpace(env); env != "" {
		return env
	}
	return s.KeyFor(provider)
}

// HasCredential reports whether a key is available for the settings' provider.
func (m *Manager) HasCredential(s Settings) bool {
	return m.credential(s, s.Provider) != ""
}

// Infer sends a compiled prompt to the provider named by settings.
func (m *Manager) Infer(ctx context.Context, s Settings, compiled string) (string, error) {
	provider, ok := m.providers[s.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", llm.ErrUnknownProvider, s.Provider)
	}

	key := m.credential(s, s.Provider)
	if key == "" {
		m.metrics.Analysis(s.Provider, "missing_credential")
		return "", llm.MissingCredential(s.Provider)
	}

	start := time.Now()
	out, err := provider.GenerateResponse(ctx, llm.Request{
		Model:        s.Model,
		Prompt:       compiled,
		SystemPrompt: llm.SystemPrompt,
		APIKey:       key,
		Temperature:  llm.DefaultTemperature,
	})
	log := m.logger.With().
		Str("provider", s.Provider).
		Str("model", s.Model).
		Dur("elapsed", time.Since(start)).
		Logger()
	if err == nil {
		// Some models fence the whole answer; store the bare Markdown.
		out = utils.CleanMarkdown(out)
		if !utils.ValidateMarkdown(out) {
			err = &llm.ProviderError{Provider: s.Provider, Message: "empty analysis"}
		}
	}
	if err != nil {
		m.metrics.Analysis(s.Provider, "error")
		log.Warn().Err(err).Msg("inference failed")
		return "", err
	}
	m.metrics.Analysis(s.Provider, "ok")
	log.Debug().Int("chars", len(out)).Msg("inference complete")
	return out, nil
}

// Analyze compiles template against r and runs inference.
func (m *Manager) Analyze(ctx context.Context, s Settings, template string, r *report.Report) (string, error) {
	return m.Infer(ctx, s, prompt.Compile(template, r))
}
