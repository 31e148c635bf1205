package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesRoleAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "server", zerolog.DebugLevel)

	l.Info().Str("path", "scores").Msg("read")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "server", entry["role"])
	assert.Equal(t, "scores", entry["path"])
	assert.Equal(t, "read", entry["message"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "cli", zerolog.WarnLevel)

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith_AddsField(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "server", zerolog.DebugLevel).With("component", "realtime")

	l.Debug().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "realtime", entry["component"])
}

func TestWith_NilReceiver(t *testing.T) {
	var l *Logger
	assert.NotNil(t, l.With("a", "b"))
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "server", zerolog.DebugLevel)

	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("from ctx")

	assert.Contains(t, buf.String(), "from ctx")
}

func TestNop_DiscardsOutput(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Error().Msg("nothing")
	})
}
