// Package llm holds the model provider clients used for report analysis.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names as stored in settings.
const (
	ProviderGoogle   = "google"
	ProviderCerebras = "cerebras"
)

// SystemPrompt frames every analysis request.
const SystemPrompt = "You are an expert Medical Laboratory QC Specialist."

// DefaultTemperature keeps audits close to deterministic.
const DefaultTemperature = 0.2

// Request is a single completion call.
type Request struct {
	Model        string
	Prompt       string
	SystemPrompt string
	APIKey       string
	Temperature  float64
}

// Provider is the interface for all LLM providers. One call per invocation;
// providers never retry or stream.
type Provider interface {
	GenerateResponse(ctx context.Context, req Request) (string, error)
}

var (
	// ErrMissingCredential is returned before any network call when no API
	// key is available for the selected provider.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrUnknownProvider is returned for a provider name with no client.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProviderError is a failure reported by the provider itself.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s Error: %s", displayName(e.Provider), e.Message)
}

func displayName(provider string) string {
	switch provider {
	case ProviderGoogle:
		return "Gemini"
	case ProviderCerebras:
		return "Cerebras"
	default:
		return provider
	}
}

// MissingCredential wraps ErrMissingCredential with the provider's setup hint.
func MissingCredential(provider string) error {
	return fmt.Errorf("%s API Key Missing. Please add your API Key in the AI Configuration settings: %w",
		displayName(provider), ErrMissingCredential)
}
