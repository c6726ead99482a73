// logging/logging.go

// Package logging builds the service's zap loggers and its HTTP logging
// middlewares. Output always goes to stderr: a console encoding in dev and
// JSON in prod, every entry tagged with the service name.
package logging

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName tags every log entry.
const ServiceName = "contactd"

// ValidLogLevels are the values log_level accepts.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// IsValidLogLevel reports whether level names one of ValidLogLevels,
// ignoring case.
func IsValidLogLevel(level string) bool {
	return slices.Contains(ValidLogLevels, strings.ToLower(strings.TrimSpace(level)))
}

// BootstrapLogger is the info-level console logger used until the
// configuration is loaded.
func BootstrapLogger() *zap.Logger {
	return newLogger(zapcore.InfoLevel, false, zapcore.Lock(os.Stderr))
}

// BuildLogger returns the logger for the loaded configuration. env "prod"
// selects JSON output with sampling; anything else the console encoding.
func BuildLogger(level, env string) (*zap.Logger, error) {
	if !IsValidLogLevel(level) {
		return nil, fmt.Errorf("logging: invalid level %q, want one of %s",
			level, strings.Join(ValidLogLevels, ", "))
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return newLogger(lvl, env == "prod", zapcore.Lock(os.Stderr)), nil
}

func newLogger(level zapcore.Level, prod bool, out zapcore.WriteSyncer) *zap.Logger {
	var (
		encCfg zapcore.EncoderConfig
		enc    zapcore.Encoder
	)
	if prod {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, out, level)
	opts := []zap.Option{
		zap.AddCaller(),
		zap.ErrorOutput(out),
		zap.Fields(zap.String("service", ServiceName)),
	}
	if prod {
		// a burst of identical bad submissions logs at most 100/s per message
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	return zap.New(core, opts...)
}
