// Package logger is a thin layer over zap's sugared logger. Package-level
// helpers take a context and tag each line with the trace and operator found
// in it.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "palletledger/internal/core/context"
)

// Logger is a zap sugared logger.
type Logger struct {
	*zap.SugaredLogger
}

// Config selects level, encoder and sinks. An unknown Level means info.
type Config struct {
	Level       string
	Development bool
	OutputPaths []string
}

func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	// Skip one frame so callers of the package helpers show up as the caller.
	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{zl.Sugar()}, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var process atomic.Pointer[Logger]

// SetDefault installs l as the process logger.
func SetDefault(l *Logger) {
	process.Store(l)
}

// Default returns the process logger, creating a JSON stdout one on first use.
func Default() *Logger {
	if l := process.Load(); l != nil {
		return l
	}
	l, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
	if err != nil {
		l = Nop()
	}
	if process.CompareAndSwap(nil, l) {
		return l
	}
	return process.Load()
}

// WithContext attaches trace_id, request_id and operator fields when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	s := l.SugaredLogger
	if tc := appctx.GetTrace(ctx); tc != nil {
		s = s.With("trace_id", tc.TraceID, "request_id", tc.RequestID)
	}
	if op := appctx.GetOperator(ctx); op != nil {
		s = s.With("operator", op.OperatorID, "source", op.Source)
	}
	return &Logger{s}
}

func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

type ctxKey struct{}

// WithLogger stores l in ctx; FromContext prefers it over the process logger.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Debugw(msg, kv...) }

func Info(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Infow(msg, kv...) }

func Warn(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Warnw(msg, kv...) }

func Error(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Errorw(msg, kv...) }
