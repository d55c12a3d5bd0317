package snow

import "context"

// contextKey is an unexported type for context keys in this package.
type contextKey string

const requestIDKey = contextKey("request_id")

// WithRequestID returns a context carrying a correlation ID that will be
// attached to every call record produced under it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
