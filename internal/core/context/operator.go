// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"strings"
)

// OperatorContext identifies the caller on whose behalf a command runs.
// The value is an opaque string and is not checked against an identity system.
type OperatorContext struct {
	OperatorID string
	Source     string // http, cli
}

type operatorContextKey struct{}

// WithOperator adds OperatorContext to context.
func WithOperator(ctx context.Context, op *OperatorContext) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

// GetOperator returns OperatorContext from context.
func GetOperator(ctx context.Context) *OperatorContext {
	if v, ok := ctx.Value(operatorContextKey{}).(*OperatorContext); ok {
		return v
	}
	return nil
}

// GetOperatorID returns operator ID from context or empty string.
func GetOperatorID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.OperatorID
	}
	return ""
}

// OperatorOr returns explicit when it is not blank, otherwise the operator in ctx.
func OperatorOr(ctx context.Context, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	return GetOperatorID(ctx)
}
