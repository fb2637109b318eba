package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/retry"
)

// Generator produces the structured content JSON for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Client calls an OpenAI-compatible chat-completions endpoint and enforces a
// JSON object response.
type Client struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	ModelMax  int
	Policy    retry.Policy
	HTTP      *http.Client
	Logger    *slog.Logger
}

// NewClient constructs a Client with the given request timeout.
func NewClient(baseURL, apiKey, model string, maxTokens, modelMax int, timeout time.Duration, policy retry.Policy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: maxTokens,
		ModelMax:  modelMax,
		Policy:    policy,
		HTTP:      &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat respFormat    `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate requests a JSON content object for the prompt. Transient transport
// failures and unparseable responses retry per the policy; a response
// truncated at the token limit doubles max_tokens (capped at the model max)
// and tries again.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := c.MaxTokens
	var lastErr error
	for attempt := 0; attempt <= c.Policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.Policy.Delay(attempt)):
			}
		}

		body, finishReason, err := c.complete(ctx, prompt, maxTokens)
		if err != nil {
			lastErr = err
			c.Logger.Warn("generation attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			continue
		}
		if finishReason == "length" {
			if maxTokens < c.ModelMax {
				doubled := maxTokens * 2
				if doubled > c.ModelMax {
					doubled = c.ModelMax
				}
				c.Logger.Debug("response truncated; raising token limit",
					slog.Int("from", maxTokens), slog.Int("to", doubled))
				maxTokens = doubled
			}
			lastErr = apperr.New(apperr.CategoryContent, apperr.SeverityError, "response truncated at token limit")
			continue
		}
		if !json.Valid([]byte(body)) {
			lastErr = apperr.New(apperr.CategoryContent, apperr.SeverityError, "response is not valid JSON")
			continue
		}
		return body, nil
	}
	if lastErr == nil {
		lastErr = apperr.New(apperr.CategoryContent, apperr.SeverityError, "generation failed")
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write affiliate site content. Respond only with a JSON object."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      maxTokens,
		ResponseFormat: respFormat{Type: "json_object"},
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", "", apperr.WrapRetryable(err, apperr.CategoryNetwork, apperr.SeverityError, "call generation api")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", apperr.WrapRetryable(
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200)),
			apperr.CategoryNetwork, apperr.SeverityError, "generation api error")
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", "", apperr.New(apperr.CategoryContent, apperr.SeverityError, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", "", apperr.New(apperr.CategoryContent, apperr.SeverityError, "response has no choices")
	}
	choice := parsed.Choices[0]
	return choice.Message.Content, choice.FinishReason, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
