// Package ai wraps the chat-completions gateway used to produce study
// materials and tutoring answers.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/StudyForge-io/studyforge/internal/config"
)

var (
	// ErrRateLimited reports that the gateway rejected the call with 429.
	ErrRateLimited = errors.New("ai gateway rate limit exceeded")
	// ErrPaymentRequired reports that the gateway account is out of funds.
	ErrPaymentRequired = errors.New("ai gateway requires payment")
	// ErrEmptyCompletion reports a well-formed response with no assistant text.
	ErrEmptyCompletion = errors.New("ai gateway returned no content")
)

// Message is a single chat turn sent to the gateway.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls the chat-completions gateway.
type Client struct {
	httpClient *http.Client
	gatewayURL string
	apiKey     string
	model      string
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		gatewayURL: cfg.AI.GatewayURL,
		apiKey:     cfg.AI.APIKey,
		model:      cfg.AI.Model,
	}
}

// Complete sends a system prompt plus user prompt and returns the raw
// assistant text. Callers are responsible for parsing any structured
// payload out of it.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[AI] Gateway error: %d %s", resp.StatusCode, errorText)

		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", ErrRateLimited
		case http.StatusPaymentRequired:
			return "", ErrPaymentRequired
		}
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return chat.Choices[0].Message.Content, nil
}

// ExtractJSONObject pulls the first balanced top-level JSON object out of
// assistant text. Models often wrap their JSON in prose or markdown
// fences, so the scan ignores everything before the first "{" and tracks
// string literals while balancing braces.
func ExtractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if start == -1 {
			if ch == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}
