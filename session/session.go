package session

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/permguard/rbac"
)

// User is the identity record carried by a session
type User struct {
	ID     string    `json:"id"`
	Role   rbac.Role `json:"role"`
	Status string    `json:"status,omitempty"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
}

// Session is the externally supplied proof of identity for the current request.
// It is created by the identity provider and only read by this module.
type Session struct {
	User    *User     `json:"user"`
	Expires time.Time `json:"expires,omitempty"`
}

// Accessor retrieves the session for the current request.
// A nil session with a nil error means the caller is anonymous.
type Accessor func(ctx context.Context) (*Session, error)

// UserID returns the session's user identifier, or "" when there is none.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// Role returns the session's user role, or "" when there is none.
func (s *Session) Role() rbac.Role {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Role
}

// Authenticated reports whether the session carries a user identity
func (s *Session) Authenticated() bool {
	return s.UserID() != ""
}

type contextKey string

const requestKey contextKey = "http_request"

// WithRequest attaches the inbound request so accessors can read headers and cookies.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey, r)
}

// RequestFromContext returns the request attached by WithRequest, or nil.
func RequestFromContext(ctx context.Context) *http.Request {
	if val := ctx.Value(requestKey); val != nil {
		if r, ok := val.(*http.Request); ok {
			return r
		}
	}
	return nil
}

// Static returns an accessor that always yields s. Useful for tests and fixtures.
func Static(s *Session) Accessor {
	return func(context.Context) (*Session, error) {
		return s, nil
	}
}
