package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger for env: local logs at debug, development
// uses the development config and production emits JSON at info.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	case "development":
		return zap.NewDevelopment()
	case "production", "":
		return zap.NewProduction()
	}
	return nil, fmt.Errorf("unknown environment %q", env)
}
