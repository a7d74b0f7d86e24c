package analysis

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultModel = "gpt-4o-mini"

// ChatClient is the subset of the go-openai client used here
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps an OpenAI-compatible chat endpoint
type Client struct {
	chat        ChatClient
	model       string
	temperature float32
	maxTokens   int
}

// ClientOption configures a Client
type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithTemperature(t float32) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// NewClient creates a client for apiKey. baseURL may point at any
// OpenAI-compatible endpoint; empty keeps the OpenAI default.
func NewClient(apiKey, baseURL string, opts ...ClientOption) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewClientWith(openai.NewClientWithConfig(cfg), opts...)
}

// NewClientWith wraps an existing chat client (used by tests)
func NewClientWith(chat ChatClient, opts ...ClientOption) *Client {
	c := &Client{
		chat:        chat,
		model:       defaultModel,
		temperature: 0.4,
		maxTokens:   2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one system+user exchange and returns the first choice's text
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices returned")
	}

	logrus.Debugf("LLM finish reason: %s", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
