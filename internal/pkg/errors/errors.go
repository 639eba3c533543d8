// Package errors defines gitpick's error kinds, exit codes, logging and retry helpers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrorCode groups failures by who can fix them.
type ErrorCode int

const (
	// User errors (exit code 1).
	ErrNoStagedChanges ErrorCode = iota + 100
	ErrInvalidConfig
	ErrMissingAPIKey
	ErrInvalidArguments

	// System errors (exit code 2).
	ErrGitCommandFailed ErrorCode = iota + 200
	ErrFileSystemError
	ErrTerminal
	ErrKeyring

	// External errors (exit code 3).
	ErrAIProviderFailed ErrorCode = iota + 300
	ErrNetworkError
	ErrRateLimited
	ErrTimeout
	ErrAuthenticationFailed
)

var codeNames = map[ErrorCode]string{
	ErrNoStagedChanges:      "NoStagedChanges",
	ErrInvalidConfig:        "InvalidConfig",
	ErrMissingAPIKey:        "MissingAPIKey",
	ErrInvalidArguments:     "InvalidArguments",
	ErrGitCommandFailed:     "GitCommandFailed",
	ErrFileSystemError:      "FileSystemError",
	ErrTerminal:             "Terminal",
	ErrKeyring:              "Keyring",
	ErrAIProviderFailed:     "AIProviderFailed",
	ErrNetworkError:         "NetworkError",
	ErrRateLimited:          "RateLimited",
	ErrTimeout:              "Timeout",
	ErrAuthenticationFailed: "AuthenticationFailed",
}

// ExitCode maps the code to the process exit status.
func (c ErrorCode) ExitCode() int {
	switch {
	case c >= 200 && c < 300:
		return 2
	case c >= 300:
		return 3
	default:
		return 1
	}
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// AppError is the error type surfaced to the CLI layer.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether repeating the failed call may succeed.
func (e *AppError) IsRetryable() bool {
	switch e.Code {
	case ErrRateLimited, ErrNetworkError, ErrTimeout:
		return true
	case ErrAIProviderFailed:
		var inner *AppError
		if errors.As(e.Cause, &inner) {
			return inner.IsRetryable()
		}
	}
	return false
}

// WithContext attaches a key/value pair shown in verbose output.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion replaces the hint printed under the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around err.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// GetAppError extracts the first AppError in err's chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetExitCode returns the exit status for err. Unknown errors are user errors.
func GetExitCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.IsRetryable()
	}
	return false
}

func retryAfter(err error) time.Duration {
	for appErr := GetAppError(err); appErr != nil; appErr = GetAppError(appErr.Cause) {
		if appErr.RetryAfter > 0 {
			return appErr.RetryAfter
		}
	}
	return 0
}

// NewNoStagedChangesError mirrors git's own wording for an empty index.
func NewNoStagedChangesError() *AppError {
	return &AppError{
		Code:       ErrNoStagedChanges,
		Message:    `no changes added to commit (use "git add" and/or "git commit -a")`,
		Suggestion: "Stage the changes you want to describe with 'git add <files>'",
	}
}

// NewMissingAPIKeyError is returned when no credential could be resolved for provider.
func NewMissingAPIKeyError(provider string) *AppError {
	return &AppError{
		Code:    ErrMissingAPIKey,
		Message: fmt.Sprintf("API key is required for %s provider", provider),
		Suggestion: "Run 'gitpick key set', set OPENAI_API_KEY / GITPICK_PROVIDER_API_KEY, " +
			"or 'gitpick config set provider.api_key <key>'",
	}
}

// NewInvalidConfigError reports a configuration value that cannot be used.
func NewInvalidConfigError(message string) *AppError {
	return &AppError{
		Code:       ErrInvalidConfig,
		Message:    message,
		Suggestion: "Run 'gitpick config init' to write a fresh configuration file",
	}
}

// NewGitError wraps a failed git invocation together with its output.
func NewGitError(err error, output string) *AppError {
	appErr := &AppError{Code: ErrGitCommandFailed, Message: "git command failed", Cause: err}
	if output != "" {
		appErr.WithContext("output", output)
	}
	return appErr
}

// NewTerminalError wraps a failure of the interactive picker.
func NewTerminalError(err error) *AppError {
	return &AppError{
		Code:       ErrTerminal,
		Message:    "interactive selection failed",
		Cause:      err,
		Suggestion: "Run gitpick from an interactive terminal, or pass --yes to take the first suggestion",
	}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:       ErrNetworkError,
		Message:    "network error occurred",
		Cause:      err,
		Suggestion: "Check your network connection and try again",
	}
}

// NewRateLimitError reports an HTTP 429, keeping the server's Retry-After hint.
func NewRateLimitError(wait time.Duration) *AppError {
	suggestion := "Wait a moment and try again"
	if wait > 0 {
		suggestion = fmt.Sprintf("Wait %v and try again", wait)
	}
	return &AppError{
		Code:       ErrRateLimited,
		Message:    "rate limit exceeded",
		RetryAfter: wait,
		Suggestion: suggestion,
	}
}

// NewTimeoutError wraps a deadline expiry.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:       ErrTimeout,
		Message:    "request timed out",
		Cause:      err,
		Suggestion: "Check your network connection or try again later",
	}
}

// NewAuthenticationError reports a rejected credential.
func NewAuthenticationError(provider string) *AppError {
	return &AppError{
		Code:       ErrAuthenticationFailed,
		Message:    fmt.Sprintf("authentication failed with %s", provider),
		Suggestion: "Check that your API key is valid, then update it with 'gitpick key set'",
	}
}

// NewAIProviderError wraps any other provider failure.
func NewAIProviderError(provider string, err error) *AppError {
	return &AppError{
		Code:       ErrAIProviderFailed,
		Message:    fmt.Sprintf("%s provider error", provider),
		Cause:      err,
		Suggestion: "Check your API key and network connectivity",
	}
}

// ParseRetryAfterHeader accepts both delta-seconds and HTTP-date values.
func ParseRetryAfterHeader(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// FormatError renders err for the terminal with secrets masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	appErr := GetAppError(err)
	if appErr == nil {
		return "Error: " + SanitizeErrorMessage(err.Error())
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(SanitizeErrorMessage(appErr.Message))
	if appErr.Cause != nil {
		sb.WriteString("\n  Cause: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
	}
	if appErr.Suggestion != "" {
		sb.WriteString("\n  Suggestion: ")
		sb.WriteString(appErr.Suggestion)
	}
	return sb.String()
}

// FormatErrorVerbose adds the code, the cause chain and any context values.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	appErr := GetAppError(err)
	if appErr == nil {
		fmt.Fprintf(&sb, "Error: %s\n", SanitizeErrorMessage(err.Error()))
		sb.WriteString("  Error chain:\n")
		writeChain(&sb, err, 2)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Error [%s]: %s\n", appErr.Code, SanitizeErrorMessage(appErr.Message))
	if appErr.Cause != nil {
		sb.WriteString("  Error chain:\n")
		writeChain(&sb, appErr.Cause, 2)
	}
	if len(appErr.Context) > 0 {
		keys := make([]string, 0, len(appErr.Context))
		for k := range appErr.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("  Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "    %s: %s\n", k, SanitizeErrorMessage(fmt.Sprint(appErr.Context[k])))
		}
	}
	if appErr.Suggestion != "" {
		fmt.Fprintf(&sb, "  Suggestion: %s\n", appErr.Suggestion)
	}
	if appErr.RetryAfter > 0 {
		fmt.Fprintf(&sb, "  Retry after: %v\n", appErr.RetryAfter)
	}
	return sb.String()
}

func writeChain(sb *strings.Builder, err error, indent int) {
	for ; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(sb, "%s- %T: %s\n", strings.Repeat("  ", indent), err, SanitizeErrorMessage(err.Error()))
		indent++
	}
}

var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`)

// SanitizeErrorMessage masks anything that looks like an API key.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, MaskAPIKey)
}

// MaskAPIKey keeps only the last four characters of key.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
