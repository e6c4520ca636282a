package logging

import (
	"context"
	"slices"
)

type ctxKey struct{}

// ContextWith returns a copy of ctx carrying key/value pairs that every
// backend appends to records logged with that context. Pairs accumulate
// across nested calls.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]any)
	return context.WithValue(ctx, ctxKey{}, slices.Concat(prev, args))
}

func withContext(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	extra, _ := ctx.Value(ctxKey{}).([]any)
	if len(extra) == 0 {
		return args
	}
	return slices.Concat(args, extra)
}
