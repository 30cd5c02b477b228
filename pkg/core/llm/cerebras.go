package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultCerebrasBaseURL is the OpenAI-compatible Cerebras endpoint root.
const DefaultCerebrasBaseURL = "https://api.cerebras.ai/v1"

// CerebrasProvider calls the Cerebras chat completions API.
type CerebrasProvider struct {
	BaseURL string
	Client  *http.Client
}

// Ensure interface compliance
var _ Provider = (*CerebrasProvider)(nil)

// NewCerebrasProvider returns a provider for baseURL (default when empty).
func NewCerebrasProvider(baseURL string, timeout time.Duration) *CerebrasProvider {
	if baseURL == "" {
		baseURL = DefaultCerebrasBaseURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &CerebrasProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (p *CerebrasProvider) GenerateResponse(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", MissingCredential(ProviderCerebras)
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	jsonBytes, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("cerebras marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("cerebras create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: ProviderCerebras, Message: err.Error()}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderCerebras, StatusCode: res.StatusCode, Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &ProviderError{
			Provider:   ProviderCerebras,
			StatusCode: res.StatusCode,
			Message:    cerebrasErrorMessage(res, body),
		}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &ProviderError{Provider: ProviderCerebras, StatusCode: res.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(response.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderCerebras, StatusCode: res.StatusCode, Message: "response contained no choices"}
	}
	return response.Choices[0].Message.Content, nil
}

// cerebrasErrorMessage picks error.message, then message, then a status line.
func cerebrasErrorMessage(res *http.Response, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return fmt.Sprintf("Cerebras Error (%d): %s", res.StatusCode, http.StatusText(res.StatusCode))
	}
	if eb.Error != nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	if eb.Message != "" {
		return eb.Message
	}
	return fmt.Sprintf("Cerebras Error (%d)", res.StatusCode)
}
