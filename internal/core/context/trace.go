package context

import (
	"context"

	"herdbook/internal/core/id"
)

// TraceContext carries request correlation identifiers.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// NewTraceContext creates a TraceContext from incoming header values.
// Missing or unsafe values are replaced with fresh ids.
func NewTraceContext(traceID, requestID string) *TraceContext {
	return &TraceContext{TraceID: id.Correlation(traceID), RequestID: id.Correlation(requestID)}
}
