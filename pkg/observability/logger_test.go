package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line: %s", buf.String())
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")

		entry := decodeLogLine(t, &buf)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "info message", entry["msg"])
		assert.Contains(t, entry, "time")
	})

	t.Run("warn logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warnf("warn %d", 1)
		entry := decodeLogLine(t, &buf)
		assert.Equal(t, "warning", entry["level"])
		assert.Equal(t, "warn 1", entry["msg"])
	})

	t.Run("error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Error("error message")
		if buf.Len() == 0 {
			t.Error("Error message should be logged at Info level")
		}
	})
}

func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.Debugf("value=%s", "x")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "value=x", entry["msg"])
	assert.Equal(t, DebugLevel, logger.Level())
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(InfoLevel, &buf)
	child := root.WithField("component", "store")

	child.Debug("hidden")
	assert.Zero(t, buf.Len())

	root.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, child.Level(), "derived loggers share the root level")

	child.Debug("shown")
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "store", entry["component"])
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("key", "value").Info("message")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "value", entry["key"])
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"port":     8080,
		"pool_max": 10,
	}).Info("Starting itemservice")

	entry := decodeLogLine(t, &buf)
	assert.EqualValues(t, 8080, entry["port"])
	assert.EqualValues(t, 10, entry["pool_max"])
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	assert.Same(t, logger, logger.WithError(nil))

	logger.WithError(errors.New("boom")).Error("failed")
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"info":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"verbose": InfoLevel,
	}

	for input, expected := range tests {
		assert.Equal(t, expected, ParseLogLevel(input), "input %q", input)
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, logger, GetLogger(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotNil(t, GetLogger(context.Background()))

	FromContext(ctx).Info("handled")
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
}
