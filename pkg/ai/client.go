// Package ai wraps the Anthropic Messages API to draft journal entries and
// score payment-match candidates for normalized documents.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	journalModel = "claude-sonnet-4-6"
	verdictModel = "claude-haiku-4-5-20251001"
)

// ClientConfig represents the configuration for the Anthropic API client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration // Default: 60 seconds
}

// Client is a minimal Anthropic Messages API client. Calls are rate
// limited client-side so a burst of webhook events cannot blow through
// the API quota.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a new Anthropic API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  config.APIKey,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// messagesRequest is the Anthropic Messages API wire request.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API wire response.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends a single-turn user prompt and returns the concatenated
// text content of the response.
func (c *Client) complete(ctx context.Context, model string, maxTokens int, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/messages", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(text.String()), nil
}

// parseError parses an error response from the Anthropic API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp apiError
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("anthropic API error: %s - %s", errResp.Error.Type, errResp.Error.Message)
}
