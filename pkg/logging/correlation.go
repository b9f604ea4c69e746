package logging

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the given correlation ID.
// An empty id leaves the context unchanged.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation ID bound to the context, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NewCorrelationID generates a fresh correlation identifier.
func NewCorrelationID() string {
	return uuid.NewString()
}
