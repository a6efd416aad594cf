package session

import "context"

type handleContextKey struct{}

// WithHandle adds a session handle to the context
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleContextKey{}, h)
}

// FromContext retrieves the session handle stored by Manager.Middleware
func FromContext(ctx context.Context) (*Handle, bool) {
	h, ok := ctx.Value(handleContextKey{}).(*Handle)
	return h, ok && h != nil
}

// MustFromContext retrieves the session handle or panics
func MustFromContext(ctx context.Context) *Handle {
	h, ok := FromContext(ctx)
	if !ok {
		panic("session: handle not found in context")
	}
	return h
}
