package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWithCore_RecordsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).With(String("component", "compiler"))

	log.Warn("rule pattern failed to compile", Int64("rule_id", 7), Error(errors.New("missing )")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "compiler", ctx["component"])
	assert.Equal(t, int64(7), ctx["rule_id"])
	assert.Equal(t, "missing )", ctx["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNopAndOrNop(t *testing.T) {
	n := OrNop(nil)
	n.Info("dropped")
	assert.NoError(t, n.Sync())
	assert.Equal(t, n, n.With(String("k", "v")))
}

func TestNew(t *testing.T) {
	log, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	log.Debug("hello")
}
