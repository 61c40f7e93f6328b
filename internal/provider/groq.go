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

const groqBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// Groq chat completions request/response types (unexported). The wire format
// is OpenAI-compatible, but the envelope stays private to this adapter.

type groqRequest struct {
	Model     string        `json:"model"`
	Messages  []groqMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []groqChoice `json:"choices"`
}

type groqChoice struct {
	Message groqMessage `json:"message"`
}

// GroqAdapter invokes Groq's chat completions API for the "llama" model.
type GroqAdapter struct {
	httpClient *http.Client
	baseURL    string
}

// NewGroq creates the Groq adapter.
func NewGroq() *GroqAdapter {
	return &GroqAdapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    groqBaseURL,
	}
}

func (g *GroqAdapter) ID() string { return "llama" }

func (g *GroqAdapter) Invoke(ctx context.Context, prompt, credential string) (string, error) {
	body := groqRequest{
		Model:     "llama-3.3-70b-versatile",
		Messages:  []groqMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Model: "llama", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Model: "llama", Message: fmt.Sprintf("read response: %s", err)}
	}

	if resp.StatusCode != 200 {
		return "", &ProviderError{
			Model:      "llama",
			StatusCode: resp.StatusCode,
			Message:    extractOpenAIError(respBody),
		}
	}

	var chatResp groqResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &ProviderError{Model: "llama", Malformed: true, Message: err.Error()}
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &ProviderError{Model: "llama", Malformed: true, Message: "no choices in response"}
	}

	return chatResp.Choices[0].Message.Content, nil
}
