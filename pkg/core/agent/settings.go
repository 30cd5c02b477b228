package agent

import (
	"strings"

	"labqc/pkg/core/llm"
)

// Settings selects the provider and model for analysis. Keys entered by an
// operator are stored here; process environment keys take priority.
type Settings struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	GeminiKey   string `json:"geminiKey,omitempty"`
	CerebrasKey string `json:"cerebrasKey,omitempty"`
}

// DefaultSettings is the first-run selection.
func DefaultSettings() Settings {
	return Settings{
		Provider: llm.ProviderGoogle,
		Model:    "gemini-3-flash-preview",
	}
}

// Redacted masks keys for API responses and logs.
func (s Settings) Redacted() Settings {
	s.GeminiKey = MaskKey(s.GeminiKey)
	s.CerebrasKey = MaskKey(s.CerebrasKey)
	return s
}

// KeyFor returns the stored key for provider, trimmed.
func (s Settings) KeyFor(provider string) string {
	switch provider {
	case llm.ProviderGoogle:
		return strings.TrimSpace(s.GeminiKey)
	case llm.ProviderCerebras:
		return strings.TrimSpace(s.CerebrasKey)
	}
	return ""
}

// MaskKey keeps the first and last four characters of a key.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
