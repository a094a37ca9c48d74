package util

import "context"

type ctxKey int

const ridKey ctxKey = iota

// WithRequestID stores the correlating id for downstream log lines and error
// bodies.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ridKey, id)
}

// RequestID returns the id placed by the middleware; empty when the request
// never crossed it (health probes, direct service tests).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ridKey).(string)
	return id
}
