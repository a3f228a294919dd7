package mongo

import (
	"context"
	"errors"

	apperrors "clinic/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsTransient reports driver failures a caller can retry unchanged: network
// errors, timeouts and errors labelled as transient by the server.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("TransientTransactionError") ||
			labeled.HasErrorLabel("RetryableWriteError")
	}
	return false
}

func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// StorageError wraps a repository failure as an AppError, marking it
// retryable when the driver says it is transient.
func StorageError(message string, err error) *apperrors.AppError {
	if IsTransient(err) {
		return apperrors.TransientStorage(message, err)
	}
	return apperrors.Internal(message, err)
}
