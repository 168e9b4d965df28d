package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/repositories"
	"go.uber.org/zap"
)

// UserService manages stored accounts
type UserService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *UserService {
	return &UserService{users: users, txMgr: txMgr, logger: logger}
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError("failed to get user", err)
	}
	return user, nil
}

// SetStatus changes the account status of id on behalf of actorID.
// Users cannot change their own status.
func (s *UserService) SetStatus(ctx context.Context, actorID string, id uuid.UUID, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus.WithDetail("status", string(status))
	}
	if actorID == id.String() {
		return nil, ErrOwnStatusChange
	}

	user, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.User, error) {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, mapUserError("failed to get user", err)
		}
		if user.Status == status {
			return nil, ErrStatusUnchanged.WithDetail("status", string(status))
		}
		if err := s.users.UpdateStatus(ctx, id, status); err != nil {
			return nil, mapUserError("failed to update user status", err)
		}
		user.Status = status
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status changed",
		zap.String("user_id", id.String()),
		zap.String("actor_id", actorID),
		zap.String("status", string(status)))
	return user, nil
}

func mapUserError(message string, err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return WrapInternal(message, err)
}
