// Package logger builds the zap logger shared by every forum service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger. Production environments get JSON output,
// everything else the development console encoder.
func New(env string) (*zap.SugaredLogger, error) {
	config := zap.NewDevelopmentConfig()
	if env == "production" || env == "prod" {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	raw, err := config.Build()
	if err != nil {
		return nil, err
	}
	return raw.Sugar(), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
