package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Sink(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "bookstore.log")
	var fallback bytes.Buffer

	log := newLogger(Log{LogLevel: zapcore.InfoLevel, Sink: sink}, "test", zapcore.AddSync(&fallback))
	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "test", entry["logger"])
	require.Empty(t, fallback.String())
}

func TestNewLogger_UnavailableSinkWarns(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "missing", "bookstore.log")
	var fallback bytes.Buffer

	log := newLogger(Log{LogLevel: zapcore.ErrorLevel, Sink: sink}, "test", zapcore.AddSync(&fallback))
	log.Error("after")

	lines := bytes.Split(bytes.TrimSpace(fallback.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var warn map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &warn))
	require.Equal(t, "log sink unavailable, writing to stderr", warn["msg"])
	require.Equal(t, sink, warn["sink"])
	require.NotEmpty(t, warn["error"])
	require.Contains(t, string(lines[1]), `"msg":"after"`)
}
