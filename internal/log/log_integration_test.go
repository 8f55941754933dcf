package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, err := New(Config{
		Level:    "debug",
		FilePath: logPath,
	})
	require.NoError(t, err)

	SetDefaultLogger(logger)
	t.Cleanup(func() { SetDefaultLogger(nil) })

	Debug("Debug message", "test", true)
	Info("Info message", "test", true)
	Warn("Warning message", "test", true)
	Error("Error message", "error", fmt.Errorf("test error"))
	With("backend", "youtube").Info("Child message")

	// Close logger to ensure file is written
	logger.Close()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	contentStr := string(content)
	assert.Contains(t, contentStr, "Debug message")
	assert.Contains(t, contentStr, "Info message")
	assert.Contains(t, contentStr, "Warning message")
	assert.Contains(t, contentStr, "Error message")
	assert.Contains(t, contentStr, "test error")
	assert.Contains(t, contentStr, `"backend":"youtube"`)
}

func TestTraceOnlyWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "debug").Trace("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	NewWithWriter(&buf, "trace").Trace("shown")
	assert.Contains(t, buf.String(), "TRACE: shown")
}

func TestWithoutDefaultLoggerIsSafe(t *testing.T) {
	SetDefaultLogger(nil)
	assert.NotPanics(t, func() {
		Info("nothing configured")
		With("k", "v").Error("still nothing")
	})
}
