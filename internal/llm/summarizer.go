package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spec-kit/complaint-analytics/internal/config"
)

// ErrNotConfigured is returned when no model credentials are available.
var ErrNotConfigured = errors.New("AI summarizer is not configured")

// Summarizer turns a prompt into free text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// NewSummarizer returns the Anthropic summarizer when an API key is set and a
// disabled one otherwise.
func NewSummarizer(cfg config.AIConfig, opts ...option.RequestOption) Summarizer {
	if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
		return DisabledSummarizer{}
	}
	return NewAnthropicSummarizer(cfg, opts...)
}

// DisabledSummarizer fails every call with ErrNotConfigured.
type DisabledSummarizer struct{}

func (DisabledSummarizer) Summarize(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// AnthropicSummarizer calls the Anthropic Messages API.
type AnthropicSummarizer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicSummarizer builds a client from config. Extra options are applied
// after the API key, so callers can point the client elsewhere.
func NewAnthropicSummarizer(cfg config.AIConfig, opts ...option.RequestOption) *AnthropicSummarizer {
	clientOpts := append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)
	return &AnthropicSummarizer{
		client:      anthropic.NewClient(clientOpts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   s.maxTokens,
		Temperature: anthropic.Float(s.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in anthropic response")
}
