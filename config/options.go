package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(cfg *Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(cfg *Config) {
		cfg.Log.LogLevel = level
	}
}

func WithBackendTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.Backend.Timeout = timeout
	}
}
