package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)
	l.Debug().Msg("hidden")
	l.Info().Str("stage", "cull").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"stage":"cull"`)
	assert.Contains(t, out, `"message":"visible"`)
}

func TestInitWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "app.log")

	closeFn, err := Init(Config{Level: "debug", File: path})
	require.NoError(t, err)
	Info().Msg("写入文件")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))

	ctx := WithRun(context.Background(), "run-1")
	var buf bytes.Buffer
	l := Ctx(ctx).Output(&buf)
	l.Info().Msg("hi")
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
}
