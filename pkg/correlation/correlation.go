// Package correlation threads the saga correlation identifier explicitly
// through call boundaries: middleware extracts or mints it, services pass it
// as a value, outbound clients and event headers carry it onward.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// Header is the wire name for the correlation id on HTTP calls. The edge
// proxy forwards it opaquely; internally it identifies one saga execution.
const Header = "X-Correlation-Id"

type contextKey struct{}

// NewID mints a fresh correlation id for a new saga execution.
func NewID() string {
	return uuid.New().String()
}

// WithID returns a child context carrying the correlation id.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation id carried by ctx, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// EnsureID returns the id from ctx, minting one when absent.
func EnsureID(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}
