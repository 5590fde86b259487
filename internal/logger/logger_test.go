package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Log = zap.New(core, append(options(), zap.WithFatalHook(zapcore.WriteThenPanic))...)
	t.Cleanup(func() { Log = prev })
	return logs
}

func TestHelpersReportTheirCaller(t *testing.T) {
	logs := observe(t)

	Info("hello", zap.String("k", "v"))
	Errorf("failed %d", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "logger_test.go", filepath.Base(e.Caller.File))
	}
	assert.Equal(t, "failed 3", entries[1].Message)
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
}

func TestFatalReportsItsCaller(t *testing.T) {
	logs := observe(t)

	assert.Panics(t, func() { Fatal("boom", zap.String("driver", "pgx")) })

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.FatalLevel, entries[0].Level)
	assert.Equal(t, "logger_test.go", filepath.Base(entries[0].Caller.File))
}
