package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gocatalog/internal/pkg/logger"
)

func TestZapLogger_ForwardsFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core))

	log.Info("categoria criada", map[string]interface{}{"slug": "moda"})
	log.Warn("cache indisponível", nil)
	log.Error("falha no DB", errors.New("connection refused"))

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "moda", entries[0].ContextMap()["slug"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "connection refused", entries[2].ContextMap()["error"])
}

func TestNewLogger_InvalidLevelFallsBack(t *testing.T) {
	assert.NotPanics(t, func() {
		log := logger.NewLogger("verbose")
		log.Debug("não deve aparecer", nil)
	})
}
