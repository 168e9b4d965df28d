package client

import (
	"context"
	"net/http"

	"github.com/upb/permguard/rbac"
)

// PermissionState is the result of a permission hook. Allowed is false while Loading.
type PermissionState struct {
	Allowed bool
	Loading bool
}

// Navigator performs client-side navigation
type Navigator interface {
	Replace(path string)
	Push(path string)
}

// Requirement decides a PermissionState for a session snapshot and navigates on denial.
type Requirement func(ctx context.Context, state SessionState, nav Navigator) PermissionState

// UseSession returns the current session snapshot
func UseSession(store *SessionStore) SessionState {
	return store.Current()
}

// UsePermission evaluates permission against the provider's table
func UsePermission(ctx context.Context, store *SessionStore, permission rbac.Permission) PermissionState {
	table := mustProvider(ctx).config.RolePermissions
	return evaluate(store.Current(), func(role rbac.Role) bool {
		return rbac.UserCan(role, permission, table)
	})
}

// UseAnyPermission is UsePermission satisfied by any one of permissions
func UseAnyPermission(ctx context.Context, store *SessionStore, permissions ...rbac.Permission) PermissionState {
	table := mustProvider(ctx).config.RolePermissions
	return evaluate(store.Current(), func(role rbac.Role) bool {
		return rbac.UserCanAny(role, permissions, table)
	})
}

// UseAllPermissions is UsePermission requiring every one of permissions
func UseAllPermissions(ctx context.Context, store *SessionStore, permissions ...rbac.Permission) PermissionState {
	table := mustProvider(ctx).config.RolePermissions
	return evaluate(store.Current(), func(role rbac.Role) bool {
		return rbac.UserCanAll(role, permissions, table)
	})
}

// UseRole reports whether the session's role is one of roles
func UseRole(store *SessionStore, roles ...rbac.Role) PermissionState {
	return evaluate(store.Current(), func(role rbac.Role) bool {
		for _, r := range roles {
			if r == role {
				return true
			}
		}
		return false
	})
}

func evaluate(state SessionState, grants func(rbac.Role) bool) PermissionState {
	if state.Loading() {
		return PermissionState{Loading: true}
	}
	if state.Status != StatusAuthenticated || !state.Session.Authenticated() {
		return PermissionState{}
	}
	return PermissionState{Allowed: grants(state.Session.Role())}
}

// AuthRequirement sends unauthenticated users to the sign-in path
func AuthRequirement() Requirement {
	return func(ctx context.Context, state SessionState, nav Navigator) PermissionState {
		p := mustProvider(ctx)
		result := evaluate(state, func(rbac.Role) bool { return true })
		if !result.Loading && !result.Allowed {
			nav.Replace(p.config.SigninPath)
		}
		return result
	}
}

// PermissionRequirement sends unauthenticated users to the sign-in path and
// authenticated users lacking permission to redirectTo, or the provider's
// DefaultRedirectTo when redirectTo is empty.
func PermissionRequirement(permission rbac.Permission, redirectTo ...string) Requirement {
	return func(ctx context.Context, state SessionState, nav Navigator) PermissionState {
		p := mustProvider(ctx)
		result := evaluate(state, func(role rbac.Role) bool {
			return rbac.UserCan(role, permission, p.config.RolePermissions)
		})
		switch {
		case result.Loading, result.Allowed:
		case state.Status != StatusAuthenticated:
			nav.Replace(p.config.SigninPath)
		default:
			target := p.config.DefaultRedirectTo
			if len(redirectTo) > 0 && redirectTo[0] != "" {
				target = redirectTo[0]
			}
			nav.Replace(target)
		}
		return result
	}
}

// RequireAuth applies AuthRequirement to the current session
func RequireAuth(ctx context.Context, store *SessionStore, nav Navigator) PermissionState {
	return AuthRequirement()(ctx, store.Current(), nav)
}

// RequirePermission applies PermissionRequirement to the current session
func RequirePermission(ctx context.Context, store *SessionStore, nav Navigator, permission rbac.Permission, redirectTo ...string) PermissionState {
	return PermissionRequirement(permission, redirectTo...)(ctx, store.Current(), nav)
}

// Watch re-applies req on every session change until ctx is done.
// It returns ctx.Err().
func Watch(ctx context.Context, store *SessionStore, nav Navigator, req Requirement) error {
	mustProvider(ctx)

	updates, cancel := store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-updates:
			req(ctx, state, nav)
		}
	}
}

// HTTPNavigator maps navigation onto server-side redirects.
// Replace answers 303 See Other and Push answers 302 Found.
type HTTPNavigator struct {
	w http.ResponseWriter
	r *http.Request

	// Location is the last redirect target, empty when none was issued.
	Location string
}

// NewHTTPNavigator creates a navigator that redirects the given request
func NewHTTPNavigator(w http.ResponseWriter, r *http.Request) *HTTPNavigator {
	return &HTTPNavigator{w: w, r: r}
}

// Replace redirects with 303 See Other
func (n *HTTPNavigator) Replace(path string) {
	n.redirect(path, http.StatusSeeOther)
}

// Push redirects with 302 Found
func (n *HTTPNavigator) Push(path string) {
	n.redirect(path, http.StatusFound)
}

// Redirected reports whether a redirect has been written
func (n *HTTPNavigator) Redirected() bool {
	return n.Location != ""
}

func (n *HTTPNavigator) redirect(path string, code int) {
	if n.Redirected() {
		return
	}
	n.Location = path
	http.Redirect(n.w, n.r, path, code)
}
