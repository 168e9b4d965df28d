package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/rbac"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound is returned when no post matches the lookup
	ErrPostNotFound = errors.New("post not found")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users ordered by creation time, newest first
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// UpdateStatus sets the account status
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error

	// UpdateRole sets the account role
	UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostRepository handles post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates the repositories used by the handlers
type Repositories struct {
	Users UserRepository // nil when no database is configured
	Posts PostRepository
}
