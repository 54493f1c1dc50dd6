package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	logger := NewStructuredLogger("test-service", "1.0.0", level)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStructuredLogger_Info(t *testing.T) {
	logger, buf := newBufferedLogger(InfoLevel)

	logger.Info(context.Background(), "[TEST] hello", Fields{"count": 3})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "test-service", entry.Service)
	assert.Equal(t, "[TEST] hello", entry.Message)
	assert.Equal(t, float64(3), entry.Fields["count"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(WarnLevel)

	logger.Debug(context.Background(), "debug", Fields{})
	logger.Info(context.Background(), "info", Fields{})
	assert.Zero(t, buf.Len())

	logger.Warn(context.Background(), "warn", Fields{})
	assert.NotZero(t, buf.Len())
}

func TestStructuredLogger_ErrorCarriesCallerAndError(t *testing.T) {
	logger, buf := newBufferedLogger(ErrorLevel)

	logger.Error(context.Background(), "boom", Fields{}, errors.New("disk full"))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "disk full", entry.Error)
	assert.NotEmpty(t, entry.File)
	assert.NotZero(t, entry.Line)
}

func TestStructuredLogger_RequestIDFromContext(t *testing.T) {
	logger, buf := newBufferedLogger(InfoLevel)

	ctx := WithRequestID(context.Background(), "req-7")
	logger.Info(ctx, "with request id", Fields{})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "req-7", entry.RequestID)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, InfoLevel, ParseLevel("unknown"))
}
