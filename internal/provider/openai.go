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

const openaiBaseURL = "https://api.openai.com/v1/chat/completions"

// OpenAI chat completions request/response types (unexported).

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

// OpenAIAdapter invokes OpenAI's chat completions API for the "gpt" model.
type OpenAIAdapter struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenAI creates the OpenAI adapter.
func NewOpenAI() *OpenAIAdapter {
	return &OpenAIAdapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    openaiBaseURL,
	}
}

func (o *OpenAIAdapter) ID() string { return "gpt" }

func (o *OpenAIAdapter) Invoke(ctx context.Context, prompt, credential string) (string, error) {
	body := openaiRequest{
		Model:     "gpt-4o-mini",
		Messages:  []openaiMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Model: "gpt", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Model: "gpt", Message: fmt.Sprintf("read response: %s", err)}
	}

	if resp.StatusCode != 200 {
		return "", &ProviderError{
			Model:      "gpt",
			StatusCode: resp.StatusCode,
			Message:    extractOpenAIError(respBody),
		}
	}

	var chatResp openaiResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &ProviderError{Model: "gpt", Malformed: true, Message: err.Error()}
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &ProviderError{Model: "gpt", Malformed: true, Message: "no choices in response"}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// extractOpenAIError pulls the message out of the OpenAI-style error envelope:
// {"error":{"message":"...","type":"..."}}. Groq uses the same format.
func extractOpenAIError(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}
