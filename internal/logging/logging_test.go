package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, closeLog, err := New(path, "debug")
	require.NoError(t, err)

	logger.WithField("component", "test").Debug("hello from test")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"), "запись не найдена: %s", data)
	assert.Contains(t, string(data), "component:test")
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closeLog, err := New(path, "warn")
	require.NoError(t, err)

	logger.Info("skipped")
	logger.Warn("kept")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "skipped")
	assert.Contains(t, string(data), "kept")
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "app.log"), "loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error("nothing happens") })
}
