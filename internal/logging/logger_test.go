package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &buf})

	logger.Info(context.Background(), "snapshot loaded", "sections", 42)

	out := buf.String()
	assert.Contains(t, out, "snapshot loaded")
	assert.Contains(t, out, "sections=42")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Format: "text", Output: &buf})

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "also hidden")
	logger.Error(context.Background(), errors.New("boom"), "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "boom")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Format: "json", Output: &buf})

	logger.Info(context.Background(), "run finished", "status", "pass")

	out := buf.String()
	assert.Contains(t, out, `"msg":"run finished"`)
	assert.Contains(t, out, `"status":"pass"`)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Format: "text", Output: &buf})

	logger.WithComponent("watcher").Info(context.Background(), "started")

	assert.Contains(t, buf.String(), "component=watcher")
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Format: "text", Output: &buf})

	timer := StartOperation(logger, "validate")
	timer.End(context.Background())

	out := buf.String()
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, "operation=validate")
	assert.Contains(t, out, "duration_ms=")
}
