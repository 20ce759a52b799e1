package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/lineage/internal/config"
)

const biographerSystem = "You are an archivist writing entries for a family registry. Be factual and concise."

// NewClient builds the configured provider. An empty provider (or "none")
// returns a nil client, which disables biography drafting.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	opts := Options{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
		System:    biographerSystem,
	}

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", "none":
		return nil, nil
	case "openai":
		return NewOpenAIClient(opts), nil
	case "gemini":
		c, err := NewGeminiClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "claude":
		return NewClaudeClient(opts), nil
	case "ollama":
		// Ollama serves the OpenAI chat API under /v1 and ignores the key.
		opts.BaseURL = ollamaBaseURL(cfg.BaseURL)
		if opts.APIKey == "" {
			opts.APIKey = "ollama"
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

func ollamaBaseURL(base string) string {
	if base == "" {
		base = "http://localhost:11434"
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}
