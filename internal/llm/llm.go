package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message is one turn of a completion request.
type Message struct {
	Role    string
	Content string
}

// Client is a minimal chat-completion client over one provider.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Option func(*options)

type options struct {
	baseURL     string
	temperature float32
	maxTokens   int
}

func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTemperature sets the sampling temperature where the provider supports
// it. Structured extraction wants this low.
func WithTemperature(t float32) Option {
	return func(o *options) { o.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// ParseModel splits a "provider/model_name" string.
func ParseModel(model string) (provider, modelName string, err error) {
	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model format %q: expected provider/model_name", model)
	}
	return parts[0], parts[1], nil
}

// NewClient constructs a client for the named provider. The provider is an
// explicit configuration choice, never inferred from the key material.
func NewClient(provider, apiKey, model string, opts ...Option) (Client, error) {
	o := &options{temperature: 0.1, maxTokens: 1024}
	for _, opt := range opts {
		opt(o)
	}

	switch provider {
	case "openai":
		return newOpenAIClient(apiKey, model, o)
	case "anthropic":
		return newAnthropicClient(apiKey, model, o)
	case "gemini":
		return newGeminiClient(apiKey, model, o)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are openai, anthropic, gemini", provider)
	}
}
