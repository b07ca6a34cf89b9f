package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "palletledger/internal/core/context"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithOperator(ctx, &appctx.OperatorContext{OperatorID: "ops", Source: "cli"})

	l.WithContext(ctx).WithComponent("ledger").Infow("movement recorded", "quantity", 5)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "ops", fields["operator"])
	assert.Equal(t, "ledger", fields["component"])
	assert.Equal(t, int64(5), fields["quantity"])
}

func TestFromContextPrefersInjectedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), &Logger{zap.New(core).Sugar()})

	Info(ctx, "hello")
	Debug(ctx, "filtered")

	assert.Equal(t, 1, logs.FilterMessage("hello").Len())
	assert.Equal(t, 0, logs.FilterMessage("filtered").Len())
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestHelpersUseInstalledDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(&Logger{zap.New(core).Sugar()})

	ctx := appctx.WithOperator(context.Background(), &appctx.OperatorContext{OperatorID: "sgt.okafor", Source: "http"})
	Warn(ctx, "movement rejected", "quantity", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "sgt.okafor", entry.ContextMap()["operator"])
	assert.Equal(t, "http", entry.ContextMap()["source"])
}
