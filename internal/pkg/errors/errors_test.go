package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorCode_ExitCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrNoStagedChanges, 1},
		{ErrMissingAPIKey, 1},
		{ErrInvalidArguments, 1},
		{ErrGitCommandFailed, 2},
		{ErrTerminal, 2},
		{ErrKeyring, 2},
		{ErrAIProviderFailed, 3},
		{ErrRateLimited, 3},
		{ErrAuthenticationFailed, 3},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("exit status 128")
	err := NewGitError(cause, "fatal: not a git repository")

	if got := err.Error(); got != "git command failed: exit status 128" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Context["output"] != "fatal: not a git repository" {
		t.Errorf("output context = %v", err.Context["output"])
	}
}

func TestGetExitCode(t *testing.T) {
	wrapped := fmt.Errorf("running picker: %w", NewTerminalError(errors.New("bad fd")))
	if got := GetExitCode(wrapped); got != 2 {
		t.Errorf("GetExitCode(wrapped terminal error) = %d, want 2", got)
	}
	if got := GetExitCode(errors.New("plain")); got != 1 {
		t.Errorf("GetExitCode(plain) = %d, want 1", got)
	}
	if !Is(wrapped, ErrTerminal) {
		t.Error("Is(wrapped, ErrTerminal) = false")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"rate limited", NewRateLimitError(0), true},
		{"timeout", NewTimeoutError(context.DeadlineExceeded), true},
		{"auth", NewAuthenticationError("openai"), false},
		{"provider wrapping network", NewAIProviderError("openai", NewNetworkError(errors.New("reset"))), true},
		{"provider wrapping plain", NewAIProviderError("openai", errors.New("bad request")), false},
		{"plain", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseRetryAfterHeader(t *testing.T) {
	if got := ParseRetryAfterHeader("7"); got != 7*time.Second {
		t.Errorf("seconds form = %v", got)
	}
	if got := ParseRetryAfterHeader(""); got != 0 {
		t.Errorf("empty = %v", got)
	}
	if got := ParseRetryAfterHeader("soon"); got != 0 {
		t.Errorf("garbage = %v", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC1123)
	future = strings.Replace(future, "UTC", "GMT", 1)
	if got := ParseRetryAfterHeader(future); got <= 0 {
		t.Errorf("http-date form = %v, want positive", got)
	}
}

func TestFormatError_MasksKeys(t *testing.T) {
	key := "sk-abcdefghijklmnopqrstuvwxyz123456"
	err := NewAIProviderError("openai", fmt.Errorf("invalid key %s", key))

	out := FormatError(err)
	if strings.Contains(out, key) {
		t.Errorf("FormatError leaked the key: %s", out)
	}
	if !strings.Contains(out, "3456") {
		t.Errorf("FormatError should keep the last four characters: %s", out)
	}
	if !strings.Contains(out, "Suggestion:") {
		t.Errorf("FormatError should include the suggestion: %s", out)
	}

	verbose := FormatErrorVerbose(err)
	if !strings.Contains(verbose, "[AIProviderFailed]") {
		t.Errorf("verbose output missing code: %s", verbose)
	}
	if strings.Contains(verbose, key) {
		t.Errorf("verbose output leaked the key: %s", verbose)
	}
}

func TestNoStagedChangesMessage(t *testing.T) {
	err := NewNoStagedChangesError()
	want := `no changes added to commit (use "git add" and/or "git commit -a")`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey("abc"); got != "****" {
		t.Errorf("short key = %q", got)
	}
	if got := MaskAPIKey("12345678"); got != "****5678" {
		t.Errorf("MaskAPIKey = %q", got)
	}
}
