// Package ai asks a chat-completion service for commit message candidates.
package ai

import (
	"context"
	"time"
)

const (
	ProviderNameOpenAI   = "openai"
	ProviderNameDeepSeek = "deepseek"
	ProviderNameOllama   = "ollama"

	// DefaultCount is how many candidates are requested when the caller does not say.
	DefaultCount = 5

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
)

// SuggestRequest describes one round of suggestions.
type SuggestRequest struct {
	Diff   string
	Prompt string
	Count  int
}

func (r *SuggestRequest) count() int {
	if r.Count <= 0 {
		return DefaultCount
	}
	return r.Count
}

// ProviderConfig holds backend settings after key resolution.
type ProviderConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float32
	MaxTokens   int
}

// Provider produces commit message candidates for a diff. Results are
// normalized, non-empty and free of duplicates; there may be fewer than
// requested.
type Provider interface {
	SuggestMessages(ctx context.Context, req *SuggestRequest) ([]string, error)
	Name() string
	Model() string
	ValidateConfig(cfg ProviderConfig) error
}
