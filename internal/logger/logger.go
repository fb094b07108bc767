package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a sugared zap logger for the given environment. Production
// gets JSON output at info level, anything else the development console
// encoder at debug level.
func New(environment string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}
