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

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestNewAddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", ServiceName: "thumbnailer"}, &buf)
	logger.Info().Str(FieldBucket, "photos").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "thumbnailer", line[FieldService])
	assert.Equal(t, "photos", line[FieldBucket])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug"}, &buf)

	ctx := WithLogger(context.Background(), logger)
	l := Ctx(ctx)
	l.Debug().Msg("scoped")
	assert.Contains(t, buf.String(), "scoped")

	assert.Equal(t, L().GetLevel(), Ctx(context.Background()).GetLevel())
}

func TestWithObjectScopesLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Level: "info"}, &buf))

	ctx, l := WithObject(ctx, "photos", "123/abc-456.jpg")
	l.Info().Msg("direct")
	fromCtx := Ctx(ctx)
	fromCtx.Info().Msg("via context")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, raw := range lines {
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		assert.Equal(t, "photos", line[FieldBucket])
		assert.Equal(t, "123/abc-456.jpg", line[FieldKey])
	}
}
