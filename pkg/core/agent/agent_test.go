package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labqc/pkg/core/llm"
	"labqc/pkg/core/report"
)

// MockProvider records requests and answers through GenerateFunc.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)
	Calls        []llm.Request
}

func (m *MockProvider) GenerateResponse(ctx context.Context, req llm.Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "- **Status**: PASS", nil
}

func newTestManager(opts Options) (*Manager, *MockProvider, *MockProvider) {
	m := NewManager(DefaultCatalog(), opts, zerolog.Nop(), nil)
	google, cerebras := &MockProvider{}, &MockProvider{}
	m.SetProvider(llm.ProviderGoogle, google)
	m.SetProvider(llm.ProviderCerebras, cerebras)
	return m, google, cerebras
}

func TestInferCredentialPriority(t *testing.T) {
	ctx := context.Background()

	t.Run("environment key wins", func(t *testing.T) {
		m, google, _ := newTestManager(Options{GeminiKey: " env-key "})
		_, err := m.Infer(ctx, Settings{Provider: "google", Model: "gemini-1.5-pro", GeminiKey: "stored"}, "p")
		require.NoError(t, err)
		require.Len(t, google.Calls, 1)
		assert.Equal(t, "env-key", google.Calls[0].APIKey)
		assert.Equal(t, "gemini-1.5-pro", google.Calls[0].Model)
		assert.Equal(t, llm.SystemPrompt, google.Calls[0].SystemPrompt)
	})

	t.Run("stored key trimmed", func(t *testing.T) {
		m, _, cerebras := newTestManager(Options{})
		_, err := m.Infer(ctx, Settings{Provider: "cerebras", Model: "llama3.1-8b", CerebrasKey: "  csk \n"}, "p")
		require.NoError(t, err)
		assert.Equal(t, "csk", cerebras.Calls[0].APIKey)
	})

	t.Run("missing key fails before any call", func(t *testing.T) {
		m, google, _ := newTestManager(Options{})
		_, err := m.Infer(ctx, Settings{Provider: "google", Model: "gemini-1.5-pro", GeminiKey: "   "}, "p")
		assert.ErrorIs(t, err, llm.ErrMissingCredential)
		assert.Empty(t, google.Calls)
	})

	t.Run("unknown provider", func(t *testing.T) {
		m, _, _ := newTestManager(Options{})
		_, err := m.Infer(ctx, Settings{Provider: "openai"}, "p")
		assert.ErrorIs(t, err, llm.ErrUnknownProvider)
	})
}

func TestInferPropagatesProviderError(t *testing.T) {
	m, google, _ := newTestManager(Options{GeminiKey: "k"})
	google.GenerateFunc = func(ctx context.Context, req llm.Request) (string, error) {
		return "", &llm.ProviderError{Provider: llm.ProviderGoogle, StatusCode: 429, Message: "quota"}
	}

	_, err := m.Infer(context.Background(), DefaultSettings(), "p")
	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 429, perr.StatusCode)
}

func TestInferCleansFencedAnswer(t *testing.T) {
	m, google, _ := newTestManager(Options{GeminiKey: "k"})
	google.GenerateFunc = func(ctx context.Context, req llm.Request) (string, error) {
		return "```markdown\n- **Status**: PASS\n```", nil
	}

	out, err := m.Infer(context.Background(), DefaultSettings(), "p")
	require.NoError(t, err)
	assert.Equal(t, "- **Status**: PASS", out)
}

func TestInferRejectsBlankAnswer(t *testing.T) {
	m, google, _ := newTestManager(Options{GeminiKey: "k"})
	for _, answer := range []string{"", "  \n ", "```\n\n```"} {
		google.GenerateFunc = func(ctx context.Context, req llm.Request) (string, error) {
			return answer, nil
		}
		_, err := m.Infer(context.Background(), DefaultSettings(), "p")
		var perr *llm.ProviderError
		require.True(t, errors.As(err, &perr), "answer %q", answer)
		assert.Equal(t, llm.ProviderGoogle, perr.Provider)
	}
}

func TestAnalyzeCompilesPrompt(t *testing.T) {
	m, google, _ := newTestManager(Options{GeminiKey: "k"})
	r := &report.Report{Fullname: "Jane Doe", Age: "34"}

	out, err := m.Analyze(context.Background(), DefaultSettings(), "{{fullname}} / {{age}}", r)
	require.NoError(t, err)
	assert.Equal(t, "- **Status**: PASS", out)
	assert.Equal(t, "Jane Doe / 34", google.Calls[0].Prompt)
}

func TestCatalogValidate(t *testing.T) {
	c := DefaultCatalog()

	s := c.Validate(Settings{})
	assert.Equal(t, "google", s.Provider)
	assert.Equal(t, "gemini-3-flash-preview", s.Model)

	s = c.Validate(Settings{Provider: "cerebras", Model: "gemini-1.5-pro", CerebrasKey: "k"})
	assert.Equal(t, "gpt-oss-120b", s.Model)
	assert.Equal(t, "k", s.CerebrasKey)

	s = c.Validate(Settings{Provider: "cerebras", Model: "llama3.1-70b"})
	assert.Equal(t, "llama3.1-70b", s.Model)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "..", "config", "models.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), c)

	c, err = LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "google", c.DefaultProvider)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("default_provider: cerebras\nproviders:\n  google: [a]\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	s := Settings{Provider: "google", GeminiKey: "AIzaSyExampleKey1234", CerebrasKey: "short"}
	r := s.Redacted()
	assert.Equal(t, "AIza****1234", r.GeminiKey)
	assert.Equal(t, "****", r.CerebrasKey)
	assert.Equal(t, "AIzaSyExampleKey1234", s.GeminiKey, "receiver untouched")
	assert.Empty(t, Settings{}.Redacted().GeminiKey)
}
