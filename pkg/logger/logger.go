package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = zap.NewNop()

// Config 日志配置
type Config struct {
	Level       string
	Development bool
}

// Init 初始化全局 logger，重复调用会替换旧实例
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return err
		}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	global = l
	return nil
}

// L returns the global logger without the package-level caller skip.
func L() *zap.Logger { return global.WithOptions(zap.AddCallerSkip(-1)) }

func Sync() error { return global.Sync() }

func Debug(msg string, fields ...zap.Field) { global.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { global.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { global.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { global.Error(msg, fields...) }

type ctxKey struct{}

// WithContext returns a child context whose logger carries fields.
// The logger lives exactly as long as ctx.
func WithContext(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, Ctx(ctx).With(fields...))
}

// Ctx returns the request-scoped logger, or the global one.
func Ctx(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return L()
}
