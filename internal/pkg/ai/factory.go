package ai

import (
	"fmt"

	"github.com/gitsage/gitpick/internal/pkg/config"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// SupportedProviders lists the values accepted for provider.name.
var SupportedProviders = []string{ProviderNameOpenAI, ProviderNameDeepSeek, ProviderNameOllama}

// NewProvider builds the backend named by cfg.Name. The API key must already
// be resolved into cfg.APIKey.
func NewProvider(cfg *config.ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider configuration is required")
	}

	pc := ProviderConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Endpoint:    cfg.Endpoint,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Name {
	case ProviderNameOpenAI, "":
		p, err = NewOpenAIProvider(pc)
	case ProviderNameDeepSeek:
		p, err = NewDeepSeekProvider(pc)
	case ProviderNameOllama:
		p, err = NewOllamaProvider(pc)
	default:
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("unknown provider: %s", cfg.Name)).
			WithSuggestion(fmt.Sprintf("Use one of: %v", SupportedProviders))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
