package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
)

// MockNavigator is a mock implementation of Navigator
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Replace(path string) { m.Called(path) }
func (m *MockNavigator) Push(path string)    { m.Called(path) }

var table = rbac.RolePermissions{
	"USER":  {"post:create"},
	"ADMIN": {"post:create", "user:ban"},
}

func providerContext(cfg Config) context.Context {
	return WithProvider(context.Background(), NewProvider(cfg))
}

func storeWith(role rbac.Role) *SessionStore {
	s := NewSessionStore()
	s.SetSession(&session.Session{User: &session.User{ID: "u1", Role: role}})
	return s
}

func TestNewProviderDefaults(t *testing.T) {
	p := NewProvider(Config{RolePermissions: table})
	assert.Equal(t, "/signin", p.Config().SigninPath)
	assert.Equal(t, "/", p.Config().DefaultRedirectTo)

	p = NewProvider(Config{SigninPath: "/login", DefaultRedirectTo: "/home"})
	assert.Equal(t, "/login", p.Config().SigninPath)
	assert.Equal(t, "/home", p.Config().DefaultRedirectTo)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestHooksRequireProvider(t *testing.T) {
	assert.PanicsWithError(t, ErrNoProvider.Error(), func() {
		UsePermission(context.Background(), NewSessionStore(), "post:create")
	})
}

func TestUsePermission(t *testing.T) {
	ctx := providerContext(Config{RolePermissions: table})

	t.Run("loading", func(t *testing.T) {
		state := UsePermission(ctx, NewSessionStore(), "post:create")
		assert.Equal(t, PermissionState{Loading: true}, state)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		store := NewSessionStore()
		store.SetSession(nil)
		assert.Equal(t, PermissionState{}, UsePermission(ctx, store, "post:create"))
	})

	t.Run("granted and refused", func(t *testing.T) {
		store := storeWith("USER")
		assert.True(t, UsePermission(ctx, store, "post:create").Allowed)
		assert.False(t, UsePermission(ctx, store, "user:ban").Allowed)
	})

	t.Run("any and all", func(t *testing.T) {
		store := storeWith("USER")
		assert.True(t, UseAnyPermission(ctx, store, "user:ban", "post:create").Allowed)
		assert.False(t, UseAllPermissions(ctx, store, "user:ban", "post:create").Allowed)
		assert.True(t, UseAllPermissions(ctx, storeWith("ADMIN"), "user:ban", "post:create").Allowed)
	})

	t.Run("role", func(t *testing.T) {
		store := storeWith("ADMIN")
		assert.True(t, UseRole(store, "USER", "ADMIN").Allowed)
		assert.False(t, UseRole(store, "USER").Allowed)
		assert.True(t, UseRole(NewSessionStore(), "ADMIN").Loading)
	})

	t.Run("session", func(t *testing.T) {
		store := storeWith("USER")
		state := UseSession(store)
		assert.Equal(t, StatusAuthenticated, state.Status)
		assert.Equal(t, "u1", state.Session.UserID())
	})
}

func TestRequireAuth(t *testing.T) {
	ctx := providerContext(Config{RolePermissions: table, SigninPath: "/login"})

	t.Run("loading does nothing", func(t *testing.T) {
		nav := new(MockNavigator)
		state := RequireAuth(ctx, NewSessionStore(), nav)

		assert.True(t, state.Loading)
		nav.AssertNotCalled(t, "Replace", mock.Anything)
	})

	t.Run("unauthenticated goes to signin", func(t *testing.T) {
		nav := new(MockNavigator)
		nav.On("Replace", "/login").Return()

		store := NewSessionStore()
		store.SetSession(nil)
		state := RequireAuth(ctx, store, nav)

		assert.False(t, state.Allowed)
		nav.AssertExpectations(t)
	})

	t.Run("authenticated stays", func(t *testing.T) {
		nav := new(MockNavigator)
		assert.True(t, RequireAuth(ctx, storeWith("USER"), nav).Allowed)
		nav.AssertNotCalled(t, "Replace", mock.Anything)
	})
}

func TestRequirePermission(t *testing.T) {
	ctx := providerContext(Config{RolePermissions: table})

	tests := []struct {
		name       string
		store      *SessionStore
		redirectTo []string
		expected   string
		allowed    bool
	}{
		{name: "unauthenticated goes to signin", store: func() *SessionStore { s := NewSessionStore(); s.SetSession(nil); return s }(), expected: "/signin"},
		{name: "unauthorized goes to default", store: storeWith("USER"), expected: "/"},
		{name: "unauthorized goes to override", store: storeWith("USER"), redirectTo: []string{"/posts"}, expected: "/posts"},
		{name: "authorized stays", store: storeWith("ADMIN"), allowed: true},
		{name: "loading stays", store: NewSessionStore()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := new(MockNavigator)
			if tt.expected != "" {
				nav.On("Replace", tt.expected).Return()
			}

			state := RequirePermission(ctx, tt.store, nav, "user:ban", tt.redirectTo...)

			assert.Equal(t, tt.allowed, state.Allowed)
			if tt.expected == "" {
				nav.AssertNotCalled(t, "Replace", mock.Anything)
			}
			nav.AssertExpectations(t)
			nav.AssertNotCalled(t, "Push", mock.Anything)
		})
	}
}

// recordingNavigator collects Replace targets for asynchronous assertions.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Push(path string) { n.Replace(path) }

func (n *recordingNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(providerContext(Config{RolePermissions: table}))
	store := NewSessionStore()
	nav := &recordingNavigator{}

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, nav, PermissionRequirement("user:ban", "/forbidden"))
	}()

	store.SetSession(nil)
	assert.Eventually(t, func() bool { return nav.last() == "/signin" }, time.Second, 5*time.Millisecond)

	store.SetSession(&session.Session{User: &session.User{ID: "u1", Role: "USER"}})
	assert.Eventually(t, func() bool { return nav.last() == "/forbidden" }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSessionStoreSubscribe(t *testing.T) {
	store := NewSessionStore()

	updates, cancel := store.Subscribe()
	first := <-updates
	assert.True(t, first.Loading())

	store.Set(SessionState{Status: StatusUnauthenticated})
	store.SetSession(&session.Session{User: &session.User{ID: "u1"}})

	// only the latest undelivered state is kept
	latest := <-updates
	assert.Equal(t, StatusAuthenticated, latest.Status)

	cancel()
	_, open := <-updates
	assert.False(t, open)

	assert.NotPanics(t, func() {
		cancel()
		store.SetSession(nil)
	})
}

func TestHTTPNavigator(t *testing.T) {
	t.Run("replace is see other", func(t *testing.T) {
		w := httptest.NewRecorder()
		nav := NewHTTPNavigator(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

		nav.Replace("/signin")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
		assert.True(t, nav.Redirected())
	})

	t.Run("push is found", func(t *testing.T) {
		w := httptest.NewRecorder()
		nav := NewHTTPNavigator(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

		nav.Push("/")
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("drives a requirement", func(t *testing.T) {
		ctx := providerContext(Config{RolePermissions: table})
		w := httptest.NewRecorder()
		nav := NewHTTPNavigator(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

		state := RequirePermission(ctx, storeWith("USER"), nav, "user:ban")

		require.False(t, state.Allowed)
		assert.Equal(t, "/", nav.Location)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}
