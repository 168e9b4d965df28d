package guard

import (
	"context"
	"net/http"

	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
)

// RequireAuthentication resolves the session through the configured accessor.
// An absent session, a session without a user ID, or an accessor error all
// produce the unauthenticated denial.
func (s *Store) RequireAuthentication(ctx context.Context) AuthResult {
	return s.mustSnapshot().authenticate(ctx)
}

// RequireAuthenticationAndPermission authenticates, applies the active-status
// rule, then checks that the session's role grants permission. The checks run
// in that order and stop at the first failure.
func (s *Store) RequireAuthenticationAndPermission(ctx context.Context, permission rbac.Permission) AuthResult {
	return s.mustSnapshot().authorize(ctx, func(role rbac.Role, table rbac.RolePermissions) bool {
		return rbac.UserCan(role, permission, table)
	})
}

// RequireAnyPermission is RequireAuthenticationAndPermission satisfied by any one of permissions.
func (s *Store) RequireAnyPermission(ctx context.Context, permissions ...rbac.Permission) AuthResult {
	return s.mustSnapshot().authorize(ctx, func(role rbac.Role, table rbac.RolePermissions) bool {
		return rbac.UserCanAny(role, permissions, table)
	})
}

// RequireAllPermissions is RequireAuthenticationAndPermission requiring every one of permissions.
func (s *Store) RequireAllPermissions(ctx context.Context, permissions ...rbac.Permission) AuthResult {
	return s.mustSnapshot().authorize(ctx, func(role rbac.Role, table rbac.RolePermissions) bool {
		return rbac.UserCanAll(role, permissions, table)
	})
}

func (st *state) authenticate(ctx context.Context) AuthResult {
	sess, err := st.accessor(ctx)
	if err != nil || !sess.Authenticated() {
		result := denied(DenialUnauthenticated, http.StatusUnauthorized,
			orDefault(st.config.Messages.Unauthorized, DefaultUnauthorizedMessage))
		result.Denial.Cause = err
		return result
	}
	return AuthResult{Session: sess}
}

func (st *state) authorize(ctx context.Context, grants func(rbac.Role, rbac.RolePermissions) bool) AuthResult {
	result := st.authenticate(ctx)
	if result.Denial != nil {
		return result
	}

	if !st.config.isActive(result.Session.User) {
		return denied(DenialBanned, http.StatusForbidden,
			orDefault(st.config.Messages.Banned, DefaultBannedMessage))
	}

	if !grants(result.Session.User.Role, st.config.RolePermissions) {
		return denied(DenialInsufficientPermission, http.StatusForbidden,
			orDefault(st.config.Messages.InsufficientPermissions, DefaultInsufficientPermissionsMessage))
	}

	return result
}

func (c PermissionConfig) isActive(user *session.User) bool {
	if c.IsUserActive != nil {
		return c.IsUserActive(user)
	}
	if c.ActiveStatus != "" {
		return user.Status == c.ActiveStatus
	}
	return true
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// RequireAuthentication runs the check against the default Store
func RequireAuthentication(ctx context.Context) AuthResult {
	return defaultStore.RequireAuthentication(ctx)
}

// RequireAuthenticationAndPermission runs the check against the default Store
func RequireAuthenticationAndPermission(ctx context.Context, permission rbac.Permission) AuthResult {
	return defaultStore.RequireAuthenticationAndPermission(ctx, permission)
}

// RequireAnyPermission runs the check against the default Store
func RequireAnyPermission(ctx context.Context, permissions ...rbac.Permission) AuthResult {
	return defaultStore.RequireAnyPermission(ctx, permissions...)
}

// RequireAllPermissions runs the check against the default Store
func RequireAllPermissions(ctx context.Context, permissions ...rbac.Permission) AuthResult {
	return defaultStore.RequireAllPermissions(ctx, permissions...)
}
