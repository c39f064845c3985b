package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.Logger

// InitLogger builds the process-wide logger: JSON output in production,
// a colored console encoder everywhere else.
func InitLogger(env string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	global = l
	zap.ReplaceGlobals(global)
	return nil
}

// GetLogger returns the process-wide logger. Before InitLogger runs it
// falls back to a development logger so tests get output too.
func GetLogger() *zap.Logger {
	if global == nil {
		global, _ = zap.NewDevelopment()
	}
	return global
}

// SyncLogger flushes buffered entries on shutdown
func SyncLogger() {
	if global != nil {
		_ = global.Sync()
	}
}
