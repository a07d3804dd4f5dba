package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevelAndFormat(t *testing.T) {
	_, err := New("loud", "json")
	require.Error(t, err)

	_, err = New("info", "xml")
	require.Error(t, err)

	log, err := New("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestFromZapAddsEventAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.WarnObj("stage failed", "stage_failed", map[string]any{
		"source": "newsapi",
		"error":  errors.New("boom"),
		"status": 500,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stage failed", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "stage_failed", ctx["event"])
	assert.Equal(t, "newsapi", ctx["source"])
	assert.Equal(t, "boom", ctx["error"])
	assert.EqualValues(t, 500, ctx["status"])
}

func TestEnsure(t *testing.T) {
	assert.Equal(t, NopLogger{}, Ensure(nil))
	assert.NoError(t, Ensure(nil).Sync())
}
