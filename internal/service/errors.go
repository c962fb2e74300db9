package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/housemates/internal/settlement"
	"github.com/mmynk/housemates/internal/storage"
)

var (
	errAuthRequired  = errors.New("authentication required")
	errNotMember     = errors.New("you must be a member of this group")
	errGroupTooLarge = errors.New("group is too large to settle")
	errMissingField  = errors.New("missing required field")
)

// connectError maps domain errors to Connect status codes.
func connectError(err error) *connect.Error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyMember):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrAlreadySettled), errors.Is(err, storage.ErrNothingToSettle):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, errGroupTooLarge):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, settlement.ErrInvalidInput), errors.Is(err, errMissingField):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, settlement.ErrSearchAborted) && errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, settlement.ErrSearchAborted):
		return connect.NewError(connect.CodeDeadlineExceeded, errors.New("settling this group took too long, please try again"))
	case errors.Is(err, settlement.ErrInconsistent):
		// Never surface engine internals; the settle-up was not applied.
		return connect.NewError(connect.CodeInternal, errors.New("could not settle debts, please contact support"))
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// settleResult labels a settle-up outcome for metrics.
func settleResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, settlement.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, settlement.ErrInconsistent):
		return "inconsistent"
	case errors.Is(err, settlement.ErrSearchAborted):
		return "timeout"
	case errors.Is(err, storage.ErrNothingToSettle):
		return "nothing_to_settle"
	case errors.Is(err, errGroupTooLarge):
		return "too_large"
	default:
		return "error"
	}
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", errMissingField, field)
}
