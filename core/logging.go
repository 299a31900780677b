package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

var defaultLogger = zap.NewNop().Sugar()

// InitLogger configures the process wide logger. Format is "json" or "console".
func InitLogger(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger replaces the process wide logger
func SetLogger(logger *zap.Logger) {
	defaultLogger = logger.Sugar()
}

// Sync flushes buffered log entries
func Sync() {
	_ = defaultLogger.Sync()
}

// WithDefaultLogger returns a context carrying the default logger tagged with reqId
func WithDefaultLogger(parent context.Context, reqId string) context.Context {
	return context.WithValue(parent, loggerKey{}, defaultLogger.With("req_id", reqId))
}

// WithFields returns a context whose logger carries the extra key/value pairs
func WithFields(parent context.Context, keysAndValues ...any) context.Context {
	return context.WithValue(parent, loggerKey{}, Logger(parent).With(keysAndValues...))
}

// Logger returns the logger bound to ctx, or the default one
func Logger(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return defaultLogger
}

func Infof(ctx context.Context, tpl string, args ...any) {
	Logger(ctx).Infof(tpl, args...)
}

func Warnf(ctx context.Context, tpl string, args ...any) {
	Logger(ctx).Warnf(tpl, args...)
}

func Errorf(ctx context.Context, tpl string, args ...any) {
	Logger(ctx).Errorf(tpl, args...)
}

func Debugf(ctx context.Context, tpl string, args ...any) {
	Logger(ctx).Debugf(tpl, args...)
}
