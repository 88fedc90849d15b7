package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "error.log")

	logger := NewLogger(tmpFile)

	logger.LogError("billetlugen/Bon Iver", errors.New("test error"))

	data, err := os.ReadFile(tmpFile)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "billetlugen/Bon Iver")
	assert.Contains(t, string(data), "test error")

	// Info messages go to the console logger only
	logger.LogInfo("Test info message: %s", "hello")
}

func TestLoggerWithoutFile(t *testing.T) {
	logger := NewLogger("")
	assert.NotPanics(t, func() {
		logger.LogError("site", errors.New("boom"))
	})
}
