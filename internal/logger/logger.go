package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ProductionEnv = "production"

// Config holds configuration for the logger
type Config struct {
	Level string
	Env   string
	// Service is attached to every entry in production mode.
	Service string
}

// New builds a zap logger. Production environments get JSON output,
// everything else a colored console encoder.
func New(cfg Config) (*zap.Logger, error) {
	level := parseLevel(cfg.Level)

	var zapCfg zap.Config
	if cfg.Env == ProductionEnv {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.EncoderConfig.MessageKey = "message"
		if cfg.Service != "" {
			zapCfg.InitialFields = map[string]interface{}{"service": cfg.Service}
		}
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.DisableStacktrace = cfg.Env == ProductionEnv

	return zapCfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
