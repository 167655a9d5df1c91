package logging

import "context"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores id in ctx; loggers add it to every entry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

func withRequestID(ctx context.Context, args []any) []any {
	if id, ok := RequestIDFrom(ctx); ok {
		out := make([]any, 0, len(args)+2)
		out = append(out, args...)
		return append(out, string(requestIDKey), id)
	}
	return args
}
