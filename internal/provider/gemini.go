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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// Gemini generateContent request/response types (unexported).

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// GeminiAdapter invokes Google's Generative Language API for the "gemini"
// model. Authentication goes in the query string rather than a header.
type GeminiAdapter struct {
	httpClient *http.Client
	baseURL    string
}

// NewGemini creates the Gemini adapter.
func NewGemini() *GeminiAdapter {
	return &GeminiAdapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    geminiBaseURL,
	}
}

func (g *GeminiAdapter) ID() string { return "gemini" }

func (g *GeminiAdapter) Invoke(ctx context.Context, prompt, credential string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: prompt}},
		}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := g.baseURL + "?key=" + credential
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Model: "gemini", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Model: "gemini", Message: fmt.Sprintf("read response: %s", err)}
	}

	if resp.StatusCode != 200 {
		return "", &ProviderError{
			Model:      "gemini",
			StatusCode: resp.StatusCode,
			Message:    extractGeminiError(respBody),
		}
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", &ProviderError{Model: "gemini", Malformed: true, Message: err.Error()}
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 ||
		genResp.Candidates[0].Content.Parts[0].Text == "" {
		return "", &ProviderError{Model: "gemini", Malformed: true, Message: "no candidates in response"}
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// extractGeminiError pulls the message out of Google's error envelope:
// {"error":{"code":400,"message":"...","status":"..."}}.
func extractGeminiError(body []byte) string {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}
