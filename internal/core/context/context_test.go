package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorOr(t *testing.T) {
	ctx := WithOperator(context.Background(), &OperatorContext{OperatorID: "ops-7", Source: "http"})

	assert.Equal(t, "ops-7", OperatorOr(ctx, ""))
	assert.Equal(t, "ops-7", OperatorOr(ctx, "   "))
	assert.Equal(t, "sgt.hale", OperatorOr(ctx, " sgt.hale "))
	assert.Equal(t, "", OperatorOr(context.Background(), ""))
}

func TestNewTraceContextDefaults(t *testing.T) {
	tc := NewTraceContext("req-1", "")
	assert.Equal(t, "req-1", tc.RequestID)
	assert.Equal(t, "req-1", tc.TraceID)
	assert.Len(t, tc.SpanID, 16)

	ctx := WithTrace(context.Background(), tc)
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
}
