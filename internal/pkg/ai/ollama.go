package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/message"
)

const (
	DefaultOllamaModel    = "llama3.2"
	DefaultOllamaEndpoint = "http://localhost:11434"

	// ollamaTimeout is longer than DefaultTimeout because local models load lazily.
	ollamaTimeout = 120 * time.Second
)

// LangChainProvider drives any langchaingo model. Such models return one
// completion per call, so each candidate is a separate call.
type LangChainProvider struct {
	name   string
	llm    llms.Model
	config ProviderConfig
	retry  apperrors.RetryConfig
}

// NewOllamaProvider returns a provider for a local or remote Ollama server.
func NewOllamaProvider(cfg ProviderConfig) (*LangChainProvider, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOllamaEndpoint
	}

	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.Endpoint),
		ollama.WithHTTPClient(&http.Client{Timeout: ollamaTimeout}),
	)
	if err != nil {
		return nil, apperrors.NewAIProviderError(ProviderNameOllama, err)
	}
	return NewLangChainProvider(ProviderNameOllama, llm, cfg), nil
}

// NewLangChainProvider wraps llm under name.
func NewLangChainProvider(name string, llm llms.Model, cfg ProviderConfig) *LangChainProvider {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &LangChainProvider{
		name:   name,
		llm:    llm,
		config: cfg,
		retry:  apperrors.DefaultRetryConfig(),
	}
}

func (p *LangChainProvider) Name() string {
	return p.name
}

func (p *LangChainProvider) Model() string {
	return p.config.Model
}

// ValidateConfig accepts any configuration; Ollama needs no key.
func (p *LangChainProvider) ValidateConfig(ProviderConfig) error {
	return nil
}

// SuggestMessages calls the model until it has Count distinct candidates or
// has made 2*Count calls.
func (p *LangChainProvider) SuggestMessages(ctx context.Context, req *SuggestRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	content, err := RenderUserPrompt(req.Prompt, req.Diff)
	if err != nil {
		return nil, err
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, content),
	}

	want := req.count()
	var candidates []string
	for call := 0; call < 2*want && len(candidates) < want; call++ {
		text, err := p.generate(ctx, messages, len(content))
		if err != nil {
			if len(candidates) > 0 && !errors.Is(err, context.Canceled) {
				apperrors.Warn("%s: keeping %d suggestions after error: %v", p.name, len(candidates), err)
				break
			}
			return nil, err
		}
		candidates = message.Clean(append(candidates, text))
	}

	if len(candidates) == 0 {
		return nil, apperrors.NewAIProviderError(p.name, errors.New("the model returned no usable suggestions"))
	}
	return candidates, nil
}

func (p *LangChainProvider) generate(ctx context.Context, messages []llms.MessageContent, promptLength int) (string, error) {
	apperrors.LogAPIRequest(p.name, p.config.Endpoint, p.config.Model, promptLength, 1)
	start := time.Now()

	var resp *llms.ContentResponse
	err := apperrors.Retry(ctx, p.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.llm.GenerateContent(ctx, messages,
			llms.WithTemperature(float64(p.config.Temperature)),
			llms.WithMaxTokens(p.config.MaxTokens),
		)
		return wrapLangChainError(p.name, callErr)
	})
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		apperrors.LogAPIResponse(p.name, 0, time.Since(start))
		return "", nil
	}
	apperrors.LogAPIResponse(p.name, len(resp.Choices), time.Since(start))
	return resp.Choices[0].Content, nil
}
