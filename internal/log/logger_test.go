package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentAndRunFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})

	ctx := ContextWithRunID(context.Background(), "run-1")
	runLogger := ForRun(ctx, "engine")
	runLogger.Info().Str(FieldEvent, "phase.start").Msg("hello")
	derived := Derive(func(c *zerolog.Context) { c.Int(FieldIndex, 3) })
	derived.Debug().Msg("derived")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "test", first["service"])
	assert.Equal(t, "engine", first[FieldComponent])
	assert.Equal(t, "run-1", first[FieldRunID])
	assert.Equal(t, "phase.start", first[FieldEvent])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.EqualValues(t, 3, second[FieldIndex])
}

func TestRunIDFromContext(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.Equal(t, "x", RunIDFromContext(ContextWithRunID(context.Background(), "x")))
}
