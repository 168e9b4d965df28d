package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/permguard/repositories"
)

type txKey struct{}

// MockTransactionManager runs fn with a marked context unless Begin fails
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, true), nil)
}

func TestWithTransactionResult(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the result and runs inside the transaction", func(t *testing.T) {
		txMgr := new(MockTransactionManager)
		txMgr.On("InTransaction", ctx).Return(nil)

		result, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context) (string, error) {
			assert.Equal(t, true, ctx.Value(txKey{}))
			return "success", nil
		})

		assert.NoError(t, err)
		assert.Equal(t, "success", result)
		txMgr.AssertExpectations(t)
	})

	t.Run("error in function yields zero value", func(t *testing.T) {
		txMgr := new(MockTransactionManager)
		txMgr.On("InTransaction", ctx).Return(nil)
		expectedErr := errors.New("operation failed")

		result, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context) (int, error) {
			return 42, expectedErr
		})

		assert.ErrorIs(t, err, expectedErr)
		assert.Equal(t, 0, result)
	})

	t.Run("begin error", func(t *testing.T) {
		txMgr := new(MockTransactionManager)
		txMgr.On("InTransaction", ctx).Return(errors.New("failed to begin transaction"))
		called := false

		_, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context) (int, error) {
			called = true
			return 1, nil
		})

		assert.ErrorContains(t, err, "failed to begin transaction")
		assert.False(t, called)
	})
}
