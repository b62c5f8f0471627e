package middleware

import "context"

type contextKey string

const ctxCartKey contextKey = "cart_key"

func CartKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartKey).(string); ok {
		return v
	}
	return ""
}

// WithCartKey injects the cart session identifier into the context.
func WithCartKey(ctx context.Context, cartKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartKey, cartKey)
}
