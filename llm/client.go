// Package llm wraps an OpenAI-compatible completion endpoint used to
// reformat analytics summaries for the chat assistant.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client provides access to an OpenAI-compatible LLM endpoint.
type Client struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// Config holds the LLM connection settings.
type Config struct {
	Endpoint   string // base URL, e.g. "https://api.openai.com/v1"
	Model      string
	APIKey     string // optional for local endpoints
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger.Named("llm"),
	}, nil
}

// Complete sends one chat completion request with a per-attempt timeout and
// a small bounded retry count. Any final failure is returned to the caller,
// which is expected to fall back to the local templated response.
func (c *Client) Complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying LLM request", zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		content, err := c.complete(ctx, systemMessage, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("llm completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}
