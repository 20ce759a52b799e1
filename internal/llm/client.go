package llm

import (
	"context"
)

// LLMClient generates free text from a single prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are shared by every provider client.
type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	// System is sent as the system instruction when non-empty.
	System string
}

const defaultMaxTokens = 600

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return defaultMaxTokens
}
