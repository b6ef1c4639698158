package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("job.status", map[string]any{"job_id": "j1", "status": "SUCCESS"})
	Error("job.failed", map[string]any{"err": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "job.status", entries[0].Message)
	assert.Equal(t, "j1", entries[0].ContextMap()["job_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["err"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	restore := SetLogger(L())
	defer restore()

	assert.Error(t, Init(Options{Level: "loud"}))
}

func TestInitWritesRotatingFile(t *testing.T) {
	restore := SetLogger(L())
	defer restore()

	path := filepath.Join(t.TempDir(), "logs", "api.log")
	require.NoError(t, Init(Options{Level: "debug", File: path}))

	Info("hello", map[string]any{"k": 1})
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
