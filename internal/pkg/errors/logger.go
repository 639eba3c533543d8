package errors

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel orders log messages by severity.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger writes timestamped, leveled lines. Quiet mode only lets errors and
// warnings through; verbose mode shows everything.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level LogLevel
	now   func() time.Time
}

var std = NewLogger(os.Stderr, false)

// NewLogger returns a logger writing to out.
func NewLogger(out io.Writer, verbose bool) *Logger {
	l := &Logger{out: out, now: time.Now}
	l.SetVerbose(verbose)
	return l
}

// SetVerbose switches between warn and debug thresholds.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if verbose {
		l.level = LogLevelDebug
	} else {
		l.level = LogLevelWarn
	}
}

// Verbose reports whether debug output is enabled.
func (l *Logger) Verbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level == LogLevelDebug
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}
	msg := SanitizeErrorMessage(fmt.Sprintf(format, args...))
	fmt.Fprintf(l.out, "[%s] %s: %s\n", l.now().Format("15:04:05"), level, msg)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args...)
}

// SetVerbose configures the package logger.
func SetVerbose(verbose bool) {
	std.SetVerbose(verbose)
}

// IsVerbose reports whether the package logger is in debug mode.
func IsVerbose() bool { return std.Verbose() }

// SetOutput redirects the package logger. Tests use it to capture output.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

func Error(format string, args ...interface{}) {
	std.Error(format, args...)
}

func Warn(format string, args ...interface{}) {
	std.Warn(format, args...)
}

func Info(format string, args ...interface{}) {
	std.Info(format, args...)
}

func Debug(format string, args ...interface{}) {
	std.Debug(format, args...)
}

// LogAPIRequest records an outgoing completion request.
func LogAPIRequest(provider, endpoint, model string, promptLength, n int) {
	std.Debug("API request: provider=%s endpoint=%s model=%s prompt_length=%d n=%d",
		provider, endpoint, model, promptLength, n)
}

// LogAPIResponse records the outcome of a completion request.
func LogAPIResponse(provider string, choices int, duration time.Duration) {
	std.Debug("API response: provider=%s choices=%d duration=%v", provider, choices, duration)
}

// LogRetry records a retry decision.
func LogRetry(attempt, maxAttempts int, err error, delay time.Duration) {
	std.Debug("retry %d/%d after error: %v (waiting %v)", attempt, maxAttempts, err, delay)
}
