// Package client evaluates permissions on the presentation side, against a
// role table distributed through context rather than the guard Store.
//
// Decisions are pure reads of the current SessionState. Navigation on denial
// is a side effect performed through a Navigator, either once (RequireAuth,
// RequirePermission) or on every session change (Watch).
package client

import (
	"context"
	"errors"

	"github.com/upb/permguard/rbac"
)

const (
	DefaultSigninPath = "/signin"
	DefaultRedirectTo = "/"
)

// ErrNoProvider is the panic value raised when a hook runs without a Provider in context.
var ErrNoProvider = errors.New("client: no Provider in context; wrap with WithProvider")

// Config is the value a Provider distributes to its descendants
type Config struct {
	RolePermissions rbac.RolePermissions

	// SigninPath receives unauthenticated users. Defaults to "/signin".
	SigninPath string

	// DefaultRedirectTo receives authenticated users lacking a permission. Defaults to "/".
	DefaultRedirectTo string
}

// Provider carries a Config with defaults applied
type Provider struct {
	config Config
}

// NewProvider creates a Provider, filling empty paths with their defaults
func NewProvider(cfg Config) *Provider {
	if cfg.SigninPath == "" {
		cfg.SigninPath = DefaultSigninPath
	}
	if cfg.DefaultRedirectTo == "" {
		cfg.DefaultRedirectTo = DefaultRedirectTo
	}
	return &Provider{config: cfg}
}

// Config returns the provider's configuration
func (p *Provider) Config() Config {
	return p.config
}

type contextKey struct{}

// WithProvider makes p visible to every hook called with the returned context
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the nearest Provider, if any
func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(contextKey{}).(*Provider)
	return p, ok && p != nil
}

func mustProvider(ctx context.Context) *Provider {
	p, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoProvider)
	}
	return p
}
