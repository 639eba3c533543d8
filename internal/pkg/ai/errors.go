package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// wrapOpenAIError classifies go-openai failures so the retry loop can tell
// transient errors from permanent ones.
func wrapOpenAIError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(provider, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(provider, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return apperrors.NewTimeoutError(err)
		}
		return apperrors.NewNetworkError(err)
	}
	return apperrors.NewAIProviderError(provider, err)
}

func classifyStatus(provider string, status int, msg string, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.NewAuthenticationError(provider)
	case status == http.StatusTooManyRequests:
		return apperrors.NewRateLimitError(0)
	case status >= 500:
		return apperrors.NewAIProviderError(provider, apperrors.NewNetworkError(err)).
			WithContext("status", status)
	default:
		return apperrors.Wrap(err, apperrors.ErrAIProviderFailed,
			fmt.Sprintf("%s rejected the request (status %d): %s", provider, status, msg))
	}
}

// wrapLangChainError classifies errors from langchaingo backends, which
// only expose them as text.
func wrapLangChainError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err)
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "connection refused"), strings.Contains(text, "no such host"):
		appErr := apperrors.NewNetworkError(err)
		appErr.Message = fmt.Sprintf("cannot connect to %s", provider)
		if provider == ProviderNameOllama {
			appErr.WithSuggestion("Make sure Ollama is running ('ollama serve') and the model is pulled")
		}
		return appErr
	case strings.Contains(text, "401"), strings.Contains(text, "unauthorized"):
		return apperrors.NewAuthenticationError(provider)
	case strings.Contains(text, "429"), strings.Contains(text, "too many requests"):
		return apperrors.NewRateLimitError(0)
	case strings.Contains(text, "500"), strings.Contains(text, "502"),
		strings.Contains(text, "503"), strings.Contains(text, "504"):
		return apperrors.NewAIProviderError(provider, apperrors.NewNetworkError(err))
	}
	return apperrors.NewAIProviderError(provider, err)
}
