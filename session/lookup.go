package session

import (
	"context"
	"fmt"
)

// UserLookup resolves the stored user record for an identifier.
// A nil user with a nil error means the user does not exist.
type UserLookup interface {
	LookupUser(ctx context.Context, id string) (*User, error)
}

// UserLookupFunc adapts a function to UserLookup
type UserLookupFunc func(ctx context.Context, id string) (*User, error)

// LookupUser calls f
func (f UserLookupFunc) LookupUser(ctx context.Context, id string) (*User, error) {
	return f(ctx, id)
}

// WithUserLookup wraps next so the role and status come from the stored user record
// rather than the token. Status changes (bans) then apply before the token expires.
// Users missing from the store are treated as anonymous.
func WithUserLookup(next Accessor, lookup UserLookup) Accessor {
	return func(ctx context.Context) (*Session, error) {
		s, err := next(ctx)
		if err != nil || !s.Authenticated() {
			return s, err
		}

		stored, err := lookup.LookupUser(ctx, s.User.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh user %s: %w", s.User.ID, err)
		}
		if stored == nil {
			return nil, nil
		}

		user := *s.User
		user.Role = stored.Role
		user.Status = stored.Status
		if stored.Email != "" {
			user.Email = stored.Email
		}
		if stored.Name != "" {
			user.Name = stored.Name
		}

		return &Session{User: &user, Expires: s.Expires}, nil
	}
}
