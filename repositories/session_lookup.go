package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/permguard/session"
)

// SessionLookup adapts users to session.UserLookup. Identifiers that are not
// UUIDs, and users that do not exist, resolve to no user.
func SessionLookup(users UserRepository) session.UserLookup {
	return session.UserLookupFunc(func(ctx context.Context, id string) (*session.User, error) {
		userID, err := uuid.Parse(id)
		if err != nil {
			return nil, nil
		}

		user, err := users.GetByID(ctx, userID)
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return user.SessionUser(), nil
	})
}
