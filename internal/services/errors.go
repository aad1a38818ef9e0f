package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Failure taxonomy for the chat services. Handlers translate these into HTTP
// statuses; everything else bubbles up as an internal error.
var (
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailInUse        = errors.New("email already registered")
	ErrPermissionDenied  = errors.New("store permission denied")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
)

const mongoCodeUnauthorized = 13

// mapStoreErr folds a MongoDB driver failure into the service taxonomy.
// Network and timeout failures become ErrStoreUnavailable, authorization
// failures become ErrPermissionDenied, anything else passes through wrapped.
func mapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == mongoCodeUnauthorized || cmdErr.Name == "Unauthorized") {
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
