package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"warn allowed at debug", LevelDebug, LevelWarn, true},
		{"debug blocked at info", LevelInfo, LevelDebug, false},
		{"info allowed at info", LevelInfo, LevelInfo, true},
		{"debug blocked at warn", LevelWarn, LevelDebug, false},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
		{"error allowed at error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New()
			logger.SetLevel(tt.minLevel)
			logger.SetOutput(log.New(&buf, "", 0))

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if tt.shouldLog {
				assert.NotEmpty(t, buf.String(), "expected log output")
				assert.Contains(t, buf.String(), "test message")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(log.New(&buf, "", 0))

	childLogger := logger.With("iteration", 3)
	childLogger.Warn("something happened")

	output := buf.String()
	assert.Contains(t, output, "WARN: something happened")
	assert.Contains(t, output, "iteration=3")
}

func TestLoggerInlineKeyVals(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(log.New(&buf, "", 0))

	logger.Warn("script failed", "error", errors.New("timeout"), "exit_code", 3)

	output := buf.String()
	assert.Contains(t, output, "WARN: script failed")
	assert.Contains(t, output, "error=\"timeout\"")
	assert.Contains(t, output, "exit_code=3")
}

func TestLoggerChainingPreservesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(log.New(&buf, "", 0))

	goalLogger := logger.With("goal", "demo")
	iterLogger := goalLogger.With("iteration", 1)
	iterLogger.Info("starting")

	output := buf.String()
	assert.Contains(t, output, "goal=demo")
	assert.Contains(t, output, "iteration=1")
}

func TestLoggerOriginalUnmodified(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetLevel(LevelDebug)
	logger.SetOutput(log.New(&buf, "", 0))

	_ = logger.With("iteration", 1)
	logger.Info("original logger")

	output := buf.String()
	assert.NotContains(t, output, "iteration=1")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"simple string", "hello", "hello"},
		{"string with spaces", "hello world", `"hello world"`},
		{"string with newline", "hello\nworld", `"hello\nworld"`},
		{"integer", 42, "42"},
		{"error", errors.New("oops"), `"oops"`},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatValue(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLevelNames(t *testing.T) {
	tests := []struct {
		level Level
		name  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New()
			logger.SetLevel(LevelDebug)
			logger.SetOutput(log.New(&buf, "", 0))

			switch tt.level {
			case LevelDebug:
				logger.Debug("test")
			case LevelInfo:
				logger.Info("test")
			case LevelWarn:
				logger.Warn("test")
			case LevelError:
				logger.Error("test")
			}

			assert.True(t, strings.HasPrefix(buf.String(), tt.name+":"))
		})
	}
}
