package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/permguard/session"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// SessionKey is the context key for the validated session
	SessionKey contextKey = "session"

	// ResourceKey is the context key for the resource a handler acts on
	ResourceKey contextKey = "resource"
)

// GetRequestIDFromContext retrieves the request ID from context.
// Falls back to the ID assigned by chi's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetSessionFromContext retrieves the session placed by the permission middleware
func GetSessionFromContext(ctx context.Context) *session.Session {
	if val := ctx.Value(SessionKey); val != nil {
		if s, ok := val.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// WithSession adds a session to the context
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetResourceFromContext retrieves the resource loaded for this request, or nil
func GetResourceFromContext(ctx context.Context) any {
	return ctx.Value(ResourceKey)
}

// WithResource adds a resource to the context. Loaders run before the
// permission middleware so custom checkers can inspect it.
func WithResource(ctx context.Context, resource any) context.Context {
	return context.WithValue(ctx, ResourceKey, resource)
}

// ResourceAs returns the context resource as T
func ResourceAs[T any](ctx context.Context) (T, bool) {
	r, ok := GetResourceFromContext(ctx).(T)
	return r, ok
}
