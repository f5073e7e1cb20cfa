package tenant

import "context"

// RequestContext is the per-request tenant binding created by the
// middleware and consumed by the query handlers. It lives only for the
// duration of one request.
type RequestContext struct {
	TenantID string
	Handle   *Handle
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithRequestContext binds rc into ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext retrieves the request's tenant binding.
// Returns nil, false if no tenant was bound.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rc, ok
}
