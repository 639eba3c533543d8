package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/message"
)

const (
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultDeepSeekModel    = "deepseek-chat"
	DefaultDeepSeekEndpoint = "https://api.deepseek.com/v1"

	// DefaultTemperature keeps candidates varied enough to be worth choosing between.
	DefaultTemperature = 0.7
	// DefaultMaxTokens fits one short subject line per choice.
	DefaultMaxTokens = 60
)

// OpenAIProvider talks to the OpenAI chat completions API or a compatible one.
type OpenAIProvider struct {
	name   string
	client *openai.Client
	config ProviderConfig
	retry  apperrors.RetryConfig
	// multiChoice is false for backends that ignore n and always answer with one choice.
	multiChoice bool
}

// NewOpenAIProvider returns a provider for api.openai.com, or cfg.Endpoint when set.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return newCompatibleProvider(ProviderNameOpenAI, cfg, true)
}

// NewDeepSeekProvider returns a provider for the DeepSeek API. DeepSeek
// returns a single choice per request, so candidates are collected over
// several requests.
func NewDeepSeekProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultDeepSeekModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDeepSeekEndpoint
	}
	return newCompatibleProvider(ProviderNameDeepSeek, cfg, false)
}

func newCompatibleProvider(name string, cfg ProviderConfig, multiChoice bool) (*OpenAIProvider, error) {
	if err := validateKeyedConfig(name, cfg); err != nil {
		return nil, err
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OpenAIProvider{
		name:        name,
		client:      openai.NewClientWithConfig(clientConfig),
		config:      cfg,
		retry:       apperrors.DefaultRetryConfig(),
		multiChoice: multiChoice,
	}, nil
}

func validateKeyedConfig(name string, cfg ProviderConfig) error {
	if cfg.APIKey == "" {
		return apperrors.NewMissingAPIKeyError(name)
	}
	if len(cfg.APIKey) < 20 {
		return apperrors.NewInvalidConfigError("API key appears to be invalid (too short)")
	}
	return nil
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

func (p *OpenAIProvider) ValidateConfig(cfg ProviderConfig) error {
	return validateKeyedConfig(p.name, cfg)
}

// SuggestMessages sends one request with n set to the wanted count. Backends
// that ignore n are asked once per choice, with at most 2*count requests so
// duplicates and blank answers can be topped up.
func (p *OpenAIProvider) SuggestMessages(ctx context.Context, req *SuggestRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	content, err := RenderUserPrompt(req.Prompt, req.Diff)
	if err != nil {
		return nil, err
	}

	want := req.count()
	var raw []string
	for calls := 0; calls < 2*want; calls++ {
		n := want - len(message.Clean(raw))
		if n <= 0 {
			break
		}
		if !p.multiChoice {
			n = 1
		}

		choices, err := p.complete(ctx, content, n)
		if err != nil {
			if len(raw) > 0 {
				apperrors.Warn("%s: keeping %d suggestions after error: %v", p.name, len(raw), err)
				break
			}
			return nil, err
		}
		raw = append(raw, choices...)
		if p.multiChoice {
			break
		}
	}

	candidates := message.Clean(raw)
	if len(candidates) == 0 {
		return nil, apperrors.NewAIProviderError(p.name, errors.New("the model returned no usable suggestions"))
	}
	if len(candidates) > want {
		candidates = candidates[:want]
	}
	return candidates, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, content string, n int) ([]string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
		N:           n,
	}

	apperrors.LogAPIRequest(p.name, p.config.Endpoint, p.config.Model, len(content), n)
	start := time.Now()

	var resp openai.ChatCompletionResponse
	err := apperrors.Retry(ctx, p.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		return wrapOpenAIError(p.name, callErr)
	})
	if err != nil {
		return nil, err
	}

	apperrors.LogAPIResponse(p.name, len(resp.Choices), time.Since(start))
	out := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		out = append(out, c.Message.Content)
	}
	return out, nil
}
