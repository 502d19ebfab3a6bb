package service

import (
	"context"
	"errors"
	"time"

	"glec/internal/meetings/validator"
	"glec/internal/notification"
	apperrors "glec/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Notifier delivers booking emails. *notification.Notifier satisfies it.
type Notifier interface {
	SendConfirmation(ctx context.Context, data notification.ConfirmationData) (notification.SendResult, error)
	SendProposal(ctx context.Context, data notification.ProposalData) (notification.SendResult, error)
	Admin() notification.AdminContact
}

// clock returns the current time truncated to what Mongo stores.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func validationError(message string, err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return apperrors.Validation(message, map[string]any{"fields": fields})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// storeError maps a blown deadline to Timeout and a lost database connection
// to Unavailable. Anything else is returned as is.
func storeError(ctx context.Context, err error, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Timeout(message)
	}
	if mongo.IsNetworkError(err) {
		return apperrors.Unavailable("Database", err)
	}
	return err
}
