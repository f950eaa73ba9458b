package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lead-crm/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "store"})

	log.Info("lead inserted", map[string]interface{}{"leadId": "abc"})
	log.WithError(errors.New("boom")).Error("insert failed", map[string]interface{}{"cause": errors.New("dup")})

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "store", first["component"])
	assert.Equal(t, "abc", first["leadId"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "dup", second["cause"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNewFromConfig_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.log")
	log := NewFromConfig(config.LoggingConfig{Level: "info", Format: "json", Output: path})

	log.Info("hello", map[string]interface{}{"k": "v"})
	log.Debug("hidden", nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.WithFields(nil).Warn("ignored", nil)
	})
}
