package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/logging"
)

func TestCharmAdapterJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.FormatJSON, log.DebugLevel)
	assert.Nil(t, err)
	var adapter migverify.Logger = logging.NewCharmAdapter(logger)
	adapter.Log(context.Background(), migverify.LogLevelWarning, "replaying", migverify.LogField{Key: "snapshot", Value: "3.db"})

	var line map[string]any
	assert.Nil(t, json.Unmarshal(buf.Bytes(), &line))
	check.Equal(t, "warn", line["level"])
	check.Equal(t, "replaying", line["msg"])
	check.Equal(t, "3.db", line["snapshot"])
}

func TestCharmAdapterRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.FormatText, log.InfoLevel)
	assert.Nil(t, err)
	logging.NewCharmAdapter(logger).Log(context.Background(), migverify.LogLevelDebug, "hidden")
	check.Equal(t, "", buf.String())
}

func TestNewUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := logging.New(&bytes.Buffer{}, logging.Format("xml"), log.InfoLevel)
	check.Error(t, err)
}
