// Package logging adapts github.com/charmbracelet/log to the [migverify.Logger]
// interface.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/peterldowns/migverify"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns a charmbracelet logger writing to w in the given format.
func New(w io.Writer, format Format, level log.Level) (*log.Logger, error) {
	var formatter log.Formatter
	switch format {
	case FormatText, "":
		formatter = log.TextFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
	return log.NewWithOptions(w, log.Options{Formatter: formatter, Level: level}), nil
}

// CharmAdapter implements [migverify.Logger] by writing to a
// charmbracelet logger.
type CharmAdapter struct {
	*log.Logger
}

func NewCharmAdapter(logger *log.Logger) CharmAdapter {
	return CharmAdapter{logger}
}

var levels = map[migverify.LogLevel]log.Level{ //nolint:gochecknoglobals
	migverify.LogLevelDebug:   log.DebugLevel,
	migverify.LogLevelInfo:    log.InfoLevel,
	migverify.LogLevelWarning: log.WarnLevel,
	migverify.LogLevelError:   log.ErrorLevel,
}

func (l CharmAdapter) Log(_ context.Context, level migverify.LogLevel, msg string, fields ...migverify.LogField) {
	charmLevel, ok := levels[level]
	if !ok {
		charmLevel = log.InfoLevel
	}
	keyvals := make([]any, 0, 2*len(fields))
	for _, field := range fields {
		keyvals = append(keyvals, field.Key, field.Value)
	}
	l.Logger.Log(charmLevel, msg, keyvals...)
}
