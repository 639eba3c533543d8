package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

const testKey = "sk-test-key-that-is-long-enough-for-validation"

func fastRetry() apperrors.RetryConfig {
	return apperrors.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

type chatRequest struct {
	Model       string  `json:"model"`
	N           int     `json:"n"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatResponse(contents ...string) string {
	choices := make([]map[string]interface{}, len(contents))
	for i, c := range contents {
		choices[i] = map[string]interface{}{
			"index":         i,
			"message":       map[string]string{"role": "assistant", "content": c},
			"finish_reason": "stop",
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": choices,
	})
	return string(body)
}

func apiError(msg string) string {
	return fmt.Sprintf(`{"error":{"message":%q,"type":"invalid_request_error","code":"x"}}`, msg)
}

// fakeServer answers /v1/chat/completions with the handler's result and records requests.
func fakeServer(t *testing.T, handler func(call int, req chatRequest) (int, string)) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var calls int32
	var requests []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		requests = append(requests, req)

		status, resp := handler(int(atomic.AddInt32(&calls, 1)), req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestOpenAI(t *testing.T, srv *httptest.Server) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()
	return p
}

func TestOpenAI_SuggestMessages(t *testing.T) {
	srv, requests := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusOK, chatResponse(`"fix: handle nil pointer"`, "fix bug", "fix bug", "  ", "add tests")
	})
	p := newTestOpenAI(t, srv)

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "+x", Prompt: "Describe it.", Count: 5})

	require.NoError(t, err)
	assert.Equal(t, []string{"fix: handle nil pointer", "fix bug", "add tests"}, got)

	require.Len(t, *requests, 1, "openai honours n, so one request is enough")
	req := (*requests)[0]
	assert.Equal(t, 5, req.N)
	assert.Equal(t, DefaultOpenAIModel, req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Describe it.\nReturn only a single line"))
	assert.Contains(t, req.Messages[1].Content, "```\n+x\n```")
}

func TestOpenAI_DefaultCount(t *testing.T) {
	srv, requests := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusOK, chatResponse("a")
	})
	p := newTestOpenAI(t, srv)

	_, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d"})

	require.NoError(t, err)
	assert.Equal(t, DefaultCount, (*requests)[0].N)
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	srv, requests := fakeServer(t, func(call int, _ chatRequest) (int, string) {
		if call == 1 {
			return http.StatusServiceUnavailable, apiError("overloaded")
		}
		return http.StatusOK, chatResponse("fix bug")
	})
	p := newTestOpenAI(t, srv)

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d", Count: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"fix bug"}, got)
	assert.Len(t, *requests, 2)
}

func TestOpenAI_AuthErrorIsNotRetried(t *testing.T) {
	srv, requests := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusUnauthorized, apiError("Incorrect API key provided")
	})
	p := newTestOpenAI(t, srv)

	_, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d"})

	assert.True(t, apperrors.Is(err, apperrors.ErrAuthenticationFailed), "got %v", err)
	assert.Equal(t, 3, apperrors.GetExitCode(err))
	assert.Len(t, *requests, 1)
}

func TestOpenAI_RateLimitExhaustsRetries(t *testing.T) {
	srv, requests := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusTooManyRequests, apiError("slow down")
	})
	p := newTestOpenAI(t, srv)

	_, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d"})

	assert.True(t, apperrors.Is(err, apperrors.ErrRateLimited), "got %v", err)
	assert.Len(t, *requests, 3)
}

func TestOpenAI_NoUsableChoices(t *testing.T) {
	srv, _ := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusOK, chatResponse("", `""`)
	})
	p := newTestOpenAI(t, srv)

	_, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d"})

	assert.True(t, apperrors.Is(err, apperrors.ErrAIProviderFailed), "got %v", err)
}

func TestDeepSeek_CollectsOneChoicePerRequest(t *testing.T) {
	srv, requests := fakeServer(t, func(call int, _ chatRequest) (int, string) {
		return http.StatusOK, chatResponse(fmt.Sprintf("candidate %d", call))
	})
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d", Count: 3})

	require.NoError(t, err)
	assert.Equal(t, []string{"candidate 1", "candidate 2", "candidate 3"}, got)
	require.Len(t, *requests, 3)
	for _, r := range *requests {
		assert.Equal(t, 1, r.N)
		assert.Equal(t, DefaultDeepSeekModel, r.Model)
	}
}

func TestDeepSeek_DefaultCountIsToppedUp(t *testing.T) {
	srv, requests := fakeServer(t, func(call int, _ chatRequest) (int, string) {
		return http.StatusOK, chatResponse(fmt.Sprintf("candidate %d", call))
	})
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d"})

	require.NoError(t, err)
	assert.Len(t, got, DefaultCount)
	assert.Len(t, *requests, DefaultCount)
}

func TestDeepSeek_DuplicatesAreReplaced(t *testing.T) {
	srv, requests := fakeServer(t, func(call int, _ chatRequest) (int, string) {
		if call == 2 || call == 3 {
			return http.StatusOK, chatResponse("same")
		}
		return http.StatusOK, chatResponse(fmt.Sprintf("candidate %d", call))
	})
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d", Count: 3})

	require.NoError(t, err)
	assert.Equal(t, []string{"candidate 1", "same", "candidate 4"}, got)
	assert.Len(t, *requests, 4)
}

func TestDeepSeek_StopsAfterTwiceTheCount(t *testing.T) {
	srv, requests := fakeServer(t, func(int, chatRequest) (int, string) {
		return http.StatusOK, chatResponse("same")
	})
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d", Count: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, got)
	assert.Len(t, *requests, 4)
}

func TestDeepSeek_KeepsPartialResults(t *testing.T) {
	srv, _ := fakeServer(t, func(call int, _ chatRequest) (int, string) {
		if call == 1 {
			return http.StatusOK, chatResponse("first")
		}
		return http.StatusBadRequest, apiError("bad")
	})
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Endpoint: srv.URL + "/v1"})
	require.NoError(t, err)
	p.retry = fastRetry()

	got, err := p.SuggestMessages(context.Background(), &SuggestRequest{Diff: "d", Count: 3})

	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, got)
}

func TestNewOpenAIProvider_Validation(t *testing.T) {
	_, err := NewOpenAIProvider(ProviderConfig{})
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingAPIKey), "got %v", err)

	_, err = NewOpenAIProvider(ProviderConfig{APIKey: "short"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfig), "got %v", err)

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: testKey})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, DefaultOpenAIModel, p.Model())
	assert.Equal(t, float32(DefaultTemperature), p.config.Temperature)
	assert.Equal(t, DefaultMaxTokens, p.config.MaxTokens)
}

func TestNewDeepSeekProvider_Defaults(t *testing.T) {
	p, err := NewDeepSeekProvider(ProviderConfig{APIKey: testKey, Model: "deepseek-coder"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek", p.Name())
	assert.Equal(t, "deepseek-coder", p.Model())
	assert.Equal(t, DefaultDeepSeekEndpoint, p.config.Endpoint)
}
