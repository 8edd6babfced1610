// utils/logger.go
package utils

import (
	"strings"

	"go.uber.org/zap"
)

// Log is the process-wide sugared logger. It is a no-op until InitLogger runs.
var Log = zap.NewNop().Sugar()

// InitLogger builds the global logger for the given environment
// ("production"/"prod" → JSON, anything else → console).
func InitLogger(env string) error {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = l.Sugar()
	return nil
}

// SyncLogger flushes buffered log entries.
func SyncLogger() {
	_ = Log.Sync()
}
