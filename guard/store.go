// Package guard holds the process-wide authorization configuration and the
// checks built on it.
//
// A Store is configured once at startup:
//
//	guard.Configure(guard.Options{
//		Auth:            authenticator.Accessor(),
//		RolePermissions: rbac.RolePermissions{"ADMIN": {"post:delete"}},
//		ActiveStatus:    "ACTIVE",
//	})
//
// Package-level functions operate on the default Store. Use New to get an
// isolated Store when several configurations must coexist (tests, embedding).
package guard

import (
	"fmt"
	"sync"

	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
)

// Messages overrides the denial messages. Empty fields fall back to the defaults.
type Messages struct {
	Unauthorized            string `yaml:"unauthorized"`
	Banned                  string `yaml:"banned"`
	InsufficientPermissions string `yaml:"insufficient_permissions"`
}

// PermissionConfig is the authorization policy applied by a Store.
type PermissionConfig struct {
	RolePermissions rbac.RolePermissions

	// IsUserActive, when set, decides whether an authenticated user may proceed.
	// It takes precedence over ActiveStatus.
	IsUserActive func(user *session.User) bool

	// ActiveStatus, when set, must equal the user's Status.
	// With neither rule set every authenticated user is active.
	ActiveStatus string

	Messages Messages
}

// Options is the argument to Configure
type Options struct {
	Auth            session.Accessor
	RolePermissions rbac.RolePermissions
	IsUserActive    func(user *session.User) bool
	ActiveStatus    string
	Messages        Messages
}

type state struct {
	accessor session.Accessor
	config   PermissionConfig
}

// Store holds a session accessor and a permission configuration.
// The zero value is unconfigured.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// New creates an unconfigured Store
func New() *Store {
	return &Store{}
}

// Configure replaces the accessor and permission configuration. Last call wins.
func (s *Store) Configure(opts Options) {
	next := &state{
		accessor: opts.Auth,
		config: PermissionConfig{
			RolePermissions: opts.RolePermissions,
			IsUserActive:    opts.IsUserActive,
			ActiveStatus:    opts.ActiveStatus,
			Messages:        opts.Messages,
		},
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Reset returns the Store to the unconfigured state
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()
}

// Configured reports whether Configure has been called since the last Reset
func (s *Store) Configured() bool {
	return s.snapshot() != nil
}

// SessionAccessor returns the configured accessor or ErrNotConfigured
func (s *Store) SessionAccessor() (session.Accessor, error) {
	st := s.snapshot()
	if st == nil {
		return nil, ErrNotConfigured
	}
	return st.accessor, nil
}

// PermissionConfig returns the configured policy or ErrNotConfigured
func (s *Store) PermissionConfig() (PermissionConfig, error) {
	st := s.snapshot()
	if st == nil {
		return PermissionConfig{}, ErrNotConfigured
	}
	return st.config, nil
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// mustSnapshot panics when the Store is unusable. Misconfiguration is a
// programming error, not a per-request condition.
func (s *Store) mustSnapshot() *state {
	st := s.snapshot()
	if st == nil {
		panic(ErrNotConfigured)
	}
	if st.accessor == nil {
		panic(fmt.Errorf("%w: session accessor is nil", ErrNotConfigured))
	}
	return st
}

var defaultStore = New()

// Default returns the process-wide Store used by the package-level functions
func Default() *Store {
	return defaultStore
}

// Configure configures the default Store
func Configure(opts Options) {
	defaultStore.Configure(opts)
}

// Reset clears the default Store. Intended for test isolation.
func Reset() {
	defaultStore.Reset()
}

// SessionAccessor returns the default Store's accessor
func SessionAccessor() (session.Accessor, error) {
	return defaultStore.SessionAccessor()
}

// GetPermissionConfig returns the default Store's policy
func GetPermissionConfig() (PermissionConfig, error) {
	return defaultStore.PermissionConfig()
}
