package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "signals.log")

	l, err := New(Options{Level: "info", Format: "json", OutputFile: path, Service: "signal_bot"})
	require.NoError(t, err)

	l.Info("hello")
	l.Debug("dropped")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"signal_bot"`)
	assert.NotContains(t, string(data), "dropped")
}
