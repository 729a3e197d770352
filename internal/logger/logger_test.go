package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_IsUsableBeforeInit(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	assert.NotPanics(t, func() { l.Log.Info("not initialised yet") })
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "lowercase", level: "debug", want: zapcore.DebugLevel},
		{name: "mixed case", level: "Info", want: zapcore.InfoLevel},
		{name: "uppercase with spaces", level: " WARN ", want: zapcore.WarnLevel},
		{name: "unknown level", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			err := l.Init(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	log := zap.NewExample()
	assert.Same(t, log, OrNop(log))
}
