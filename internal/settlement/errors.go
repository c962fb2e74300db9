package settlement

import "errors"

var (
	// ErrInvalidInput is returned when participants or payments are malformed.
	// Retrying with the same input reproduces the error.
	ErrInvalidInput = errors.New("invalid settlement input")

	// ErrInconsistent is returned by the solver when total debts and total credits
	// differ by more than Epsilon. It points at a bug upstream of the solver.
	ErrInconsistent = errors.New("debts and credits do not balance")

	// ErrSearchAborted is returned when the context passed to SolveContext or
	// SettleContext ends before the search does. It wraps the context's error.
	ErrSearchAborted = errors.New("settlement search aborted")
)
