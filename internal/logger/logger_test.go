package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "console info", opts: Options{Level: "info", Format: "console"}},
		{name: "json debug", opts: Options{Level: "debug", Format: "json"}},
		{name: "upper case level", opts: Options{Level: "WARN"}},
		{name: "bad level", opts: Options{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l.SugaredLogger)
		})
	}
}

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), true)

	l.Info("record", "patient_id", "ABC123", "key", "ABC123_5706.1", "status", "OK")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.True(t, strings.HasPrefix(fields["patient_id"].(string), "hash:"))
	assert.True(t, strings.HasPrefix(fields["key"].(string), "hash:"))
	assert.NotContains(t, fields["key"], "ABC123")
	assert.Equal(t, "OK", fields["status"])
}

func TestRedactionStableAndOff(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), true).With("run_id", "r1")

	l.Debug("a", "patient_id", "P1")
	l.Warn("b", "patient_id", "P1")
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, logs.All()[0].ContextMap()["patient_id"], logs.All()[1].ContextMap()["patient_id"])
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["run_id"])

	plainCore, plainLogs := observer.New(zapcore.DebugLevel)
	FromZap(zap.New(plainCore), false).Error("c", "patient_id", "P1")
	assert.Equal(t, "P1", plainLogs.All()[0].ContextMap()["patient_id"])
}

func TestNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("ignored", "k", "v")
		l.With("a", 1).Error("ignored")
		l.Sync()
	})
}
