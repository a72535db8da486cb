package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Int64("node", 7).Msg("leaf split")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "leaf split", entry["message"])
	assert.Equal(t, float64(7), entry["node"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestAutoFormatOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{}, &buf)
	require.NoError(t, err)

	log.Info().Msg("plain")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Format: "console"}, &buf)
	require.NoError(t, err)

	log.Info().Str("index", "a.idx").Msg("opened")
	assert.Contains(t, buf.String(), "opened")
	assert.Contains(t, buf.String(), "index=")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "seed.log")
	var buf bytes.Buffer
	log, closer, err := New(Config{Format: "json", File: path}, &buf)
	require.NoError(t, err)

	log.Info().Msg("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, _, err = New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{File: "x.log"}
	applyDefaults(&cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, "x.log", cfg.File)
}
