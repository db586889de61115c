package migverify

import (
	"context"
)

// LogLevel represents the severity of the log message, and is one of
//   - [LogLevelDebug]
//   - [LogLevelInfo]
//   - [LogLevelWarning]
//   - [LogLevelError]
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelError   LogLevel = "error"
	LogLevelWarning LogLevel = "warning"
)

// LogField holds a key/value pair for structured logging.
type LogField struct {
	Key   string
	Value any
}

// Logger is a generic logging interface so that the verifier and squasher can
// write to whatever structured logging solution you already use. The
// logging package contains an adapter for github.com/charmbracelet/log.
type Logger interface {
	Log(context.Context, LogLevel, string, ...LogField)
}

// Helper is an optional interface that your logger can implement to help
// make debugging and stacktraces easier to understand, primarily in tests.
// If a [Logger] implements this interface, migverify will call Helper() in its
// own helper methods so that they are omitted from your stacktraces.
//
// The [TestLogger] embeds a [testing.T], which implements Helper().
type Helper interface {
	Helper()
}

// logTo is a no-op when logger is nil.
func logTo(ctx context.Context, logger Logger, level LogLevel, msg string, fields ...LogField) {
	if logger == nil {
		return
	}
	if hl, ok := logger.(Helper); ok {
		hl.Helper()
	}
	logger.Log(ctx, level, msg, fields...)
}
