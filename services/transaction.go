package services

import (
	"context"

	"github.com/upb/permguard/repositories"
)

// WithTransactionResult runs fn inside txMgr.InTransaction and returns its result.
// Repository calls made with the ctx passed to fn share the transaction.
// On any error the zero value is returned.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := txMgr.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
