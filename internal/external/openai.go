package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"windalert/internal/types"
)

const openAIAPIBase = "https://api.openai.com"

// OpenAIConfig holds the configuration for creating an OpenAIClient.
type OpenAIConfig struct {
	APIKey  types.SecretString
	BaseURL string // defaults to openAIAPIBase
	Logger  *slog.Logger
}

// ChatMessage is one entry of a chat completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat completion request body.
type ChatRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// OpenAIClient calls the OpenAI chat completions endpoint.
type OpenAIClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
	logger  *slog.Logger
}

// NewOpenAIClient creates an OpenAIClient. Requests are not retried: message
// text is optional and a template is used instead.
func NewOpenAIClient(httpClient *http.Client, cfg OpenAIConfig) *OpenAIClient {
	return NewOpenAIClientWithBase(
		NewBaseClient(httpClient, "openai", NoRetryPolicy(), UserAgent),
		cfg,
	)
}

// NewOpenAIClientWithBase creates an OpenAIClient around an existing BaseClient.
func NewOpenAIClientWithBase(base *BaseClient, cfg OpenAIConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Complete runs a chat completion and returns the trimmed content of the
// first choice.
func (c *OpenAIClient) Complete(ctx context.Context, chat ChatRequest) (string, error) {
	payload, err := json.Marshal(chat)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to encode OpenAI request",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create OpenAI request",
			err,
		)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return "", wrapProviderError("OpenAI", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr openAIErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		c.logger.Warn("OpenAI API error",
			"status_code", resp.StatusCode,
			"error_type", apiErr.Error.Type,
			"error_code", apiErr.Error.Code,
		)
		return "", types.NewAppError(
			types.ErrCodeUpstreamAIProvider,
			fmt.Sprintf("OpenAI returned %d", resp.StatusCode),
			fmt.Errorf("openai: %s", apiErr.Error.Message),
		)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewAppError(
			types.ErrCodeUpstreamAIProvider,
			"failed to decode OpenAI response",
			err,
		)
	}
	if len(out.Choices) == 0 {
		return "", types.NewAppError(
			types.ErrCodeUpstreamAIProvider,
			"OpenAI response has no choices",
			nil,
		)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
