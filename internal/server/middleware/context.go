package middleware

import (
	"context"

	"github.com/gosuda/taskhub/internal/access"
)

type contextKey string

const ContextKeyCaller contextKey = "caller"

// WithCaller stores the authenticated caller in ctx.
func WithCaller(ctx context.Context, c access.Caller) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, c)
}

func CallerFromContext(ctx context.Context) (access.Caller, bool) {
	v, ok := ctx.Value(ContextKeyCaller).(access.Caller)
	return v, ok
}
