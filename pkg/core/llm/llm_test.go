package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCerebrasProvider(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer csk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- **Status**: PASS"}}]}`))
	}))
	defer srv.Close()

	p := NewCerebrasProvider(srv.URL+"/v1/", time.Second)
	out, err := p.GenerateResponse(context.Background(), Request{Model: "llama3.1-8b", Prompt: "audit", APIKey: "csk-test"})
	require.NoError(t, err)
	assert.Equal(t, "- **Status**: PASS", out)

	assert.Equal(t, "llama3.1-8b", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: SystemPrompt}, got.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "audit"}, got.Messages[1])
	assert.Equal(t, DefaultTemperature, got.Temperature)
}

func TestCerebrasErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"nested error message", 401, `{"error":{"message":"Wrong API Key"}}`, "Wrong API Key"},
		{"top level message", 429, `{"message":"Rate limited"}`, "Rate limited"},
		{"no message fields", 500, `{}`, "Cerebras Error (500)"},
		{"unparseable body", 502, `<html>bad gateway</html>`, "Cerebras Error (502): Bad Gateway"},
		{"no choices", 200, `{"choices":[]}`, "response contained no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewCerebrasProvider(srv.URL, time.Second).GenerateResponse(context.Background(),
				Request{Model: "m", Prompt: "p", APIKey: "k"})
			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, ProviderCerebras, perr.Provider)
			assert.Equal(t, tt.want, perr.Message)
			assert.Equal(t, "Cerebras Error: "+tt.want, err.Error())
		})
	}
}

func TestMissingCredentialMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewCerebrasProvider(srv.URL, time.Second).GenerateResponse(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "Cerebras API Key Missing")

	_, err = (&GeminiProvider{BaseURL: srv.URL}).GenerateResponse(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "Gemini API Key Missing")

	assert.False(t, called)
}

func TestGeminiProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"- **Status**: HOLD & ESCALATE"}]}}]}`))
	}))
	defer srv.Close()

	out, err := (&GeminiProvider{BaseURL: srv.URL}).GenerateResponse(context.Background(),
		Request{Model: "gemini-1.5-flash", Prompt: "audit", APIKey: "g-key", Temperature: DefaultTemperature})
	require.NoError(t, err)
	assert.Equal(t, "- **Status**: HOLD & ESCALATE", out)
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	_, err := (&GeminiProvider{BaseURL: srv.URL}).GenerateResponse(context.Background(),
		Request{Model: "gemini-1.5-flash", Prompt: "audit", APIKey: "bad"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderGoogle, perr.Provider)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Contains(t, perr.Message, "API key not valid")
}
