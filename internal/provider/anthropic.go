package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const anthropicBaseURL = "https://api.anthropic.com/v1/messages"

// Anthropic Messages API request/response types (unexported).

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AnthropicAdapter invokes Anthropic's Messages API for the "claude" model.
type AnthropicAdapter struct {
	httpClient *http.Client
	baseURL    string
}

// NewAnthropic creates the Anthropic adapter.
func NewAnthropic() *AnthropicAdapter {
	return &AnthropicAdapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    anthropicBaseURL,
	}
}

func (a *AnthropicAdapter) ID() string { return "claude" }

func (a *AnthropicAdapter) Invoke(ctx context.Context, prompt, credential string) (string, error) {
	body := anthropicRequest{
		Model:     "claude-3-5-haiku-20241022",
		MaxTokens: 1024,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", credential)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Model: "claude", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Model: "claude", Message: fmt.Sprintf("read response: %s", err)}
	}

	if resp.StatusCode != 200 {
		return "", &ProviderError{
			Model:      "claude",
			StatusCode: resp.StatusCode,
			Message:    extractAnthropicError(respBody),
		}
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return "", &ProviderError{Model: "claude", Malformed: true, Message: err.Error()}
	}

	if len(msgResp.Content) == 0 || msgResp.Content[0].Text == "" {
		return "", &ProviderError{Model: "claude", Malformed: true, Message: "no content blocks in response"}
	}

	return msgResp.Content[0].Text, nil
}

// extractAnthropicError pulls the message out of Anthropic's error envelope:
// {"type":"error","error":{"type":"...","message":"..."}}.
func extractAnthropicError(body []byte) string {
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}
