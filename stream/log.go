package stream

import (
	"go.uber.org/zap"
)

type Logger interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

var _ Logger = (*zap.SugaredLogger)(nil)

// DefaultLogger returns a zap logger writing to stderr that only prints errors.
// Use WithLogger to see the connection flow, e.g. with zap.NewDevelopment().
func DefaultLogger() Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
