package app

import (
	"context"
	"fmt"

	"github.com/upb/permguard/config"
	"github.com/upb/permguard/guard"
	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/repositories"
	"github.com/upb/permguard/repositories/memory"
	"github.com/upb/permguard/repositories/postgres"
	"github.com/upb/permguard/session"
	"go.uber.org/zap"
)

// Dependencies holds everything the reference server wires together.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when no database is configured
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory

	// Repositories. Users is nil without a database; Posts falls back to memory.
	Users     repositories.UserRepository
	Posts     repositories.PostRepository
	TxManager repositories.TransactionManager

	// Authorization
	Authenticator *session.JWTAuthenticator
	Guard         *guard.Store
	Permissions   *middleware.PermissionMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// The role table is installed into the package default guard Store.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	table, err := loadRoleTable(cfg.RBAC)
	if err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to load role table: %w", err)
	}

	deps.initAuth(cfg, guard.Default(), table)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("database", deps.DB != nil),
		zap.Int("roles", len(table)))
	return deps, nil
}

// initDatabase connects to PostgreSQL when configured and creates the schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Warn("no database configured, posts are kept in memory and roles come from tokens")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	if d.RepoFactory == nil {
		d.Posts = memory.NewPostRepository()
		return
	}

	repos := d.RepoFactory.NewRepositories()
	d.Users = repos.Users
	d.Posts = repos.Posts
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAuth builds the token authenticator and configures store with it.
// An external JWKS takes over session validation when configured. With a user
// repository, role and status are re-read on every request.
func (d *Dependencies) initAuth(cfg *config.Config, store *guard.Store, table rbac.RolePermissions) {
	d.Authenticator = session.NewJWTAuthenticator(session.JWTConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		CookieName: cfg.Auth.CookieName,
		TTL:        cfg.Auth.TokenTTL,
	})

	accessor := d.Authenticator.Accessor()
	if cfg.Auth.UsesJWKS() {
		accessor = session.NewJWKSAuthenticator(session.JWKSConfig{
			URL:         cfg.Auth.JWKSURL,
			Issuer:      cfg.Auth.Issuer,
			Audience:    cfg.Auth.Audience,
			RoleClaim:   cfg.Auth.RoleClaim,
			StatusClaim: cfg.Auth.StatusClaim,
			CacheTTL:    cfg.Auth.JWKSCacheTTL,
		}).Accessor()
		d.Logger.Info("sessions verified against external JWKS",
			zap.String("jwks_url", cfg.Auth.JWKSURL))
	}
	if d.Users != nil {
		accessor = session.WithUserLookup(accessor, repositories.SessionLookup(d.Users))
	}

	store.Configure(guard.Options{
		Auth:            accessor,
		RolePermissions: table,
		ActiveStatus:    cfg.RBAC.ActiveStatus,
		Messages:        cfg.RBAC.Messages,
	})

	d.Guard = store
	d.Permissions = middleware.NewPermissionMiddleware(store, d.Logger)
}

func loadRoleTable(cfg config.RBACConfig) (rbac.RolePermissions, error) {
	if cfg.RolesFile == "" {
		return models.DefaultRolePermissions(), nil
	}
	return config.LoadRolePermissions(cfg.RolesFile)
}

func (d *Dependencies) closeDatabase() {
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
