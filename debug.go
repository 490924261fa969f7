package inkwell

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugLogger provides debug logging for inkwell operations. When
// enabled, it logs all remote API communications including requests,
// responses, and full error details.
type DebugLogger struct {
	mu      sync.Mutex
	enabled bool
	writer  io.Writer
}

// NewDebugLogger creates a new debug logger. If logPath is empty, logs go
// to stderr; otherwise they go to a size-rotated file.
func NewDebugLogger(enabled bool, logPath string) *DebugLogger {
	var writer io.Writer = os.Stderr

	if enabled && logPath != "" {
		writer = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}

	return &DebugLogger{
		enabled: enabled,
		writer:  writer,
	}
}

// Close closes the debug logger if it's writing to a file.
func (l *DebugLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.writer.(io.Closer); ok && l.writer != os.Stderr {
		return closer.Close()
	}
	return nil
}

// Log writes a debug message if logging is enabled.
func (l *DebugLogger) Log(format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.writer, "[%s] [INKWELL DEBUG] %s\n", timestamp, msg)
}

// LogRequest logs an outgoing HTTP request.
func (l *DebugLogger) LogRequest(method, url string, body []byte) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("REQUEST %s %s", method, url)
	if len(body) > 0 {
		l.Log("REQUEST BODY: %s", truncateForLog(string(body), 2000))
	}
}

// LogResponse logs an HTTP response.
func (l *DebugLogger) LogResponse(statusCode int, status string, body []byte) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("RESPONSE %d %s", statusCode, status)
	if len(body) > 0 {
		l.Log("RESPONSE BODY: %s", truncateForLog(string(body), 4000))
	}
}

// LogError logs an error with full details.
func (l *DebugLogger) LogError(operation string, err error) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("ERROR [%s]: %v", operation, err)
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}
