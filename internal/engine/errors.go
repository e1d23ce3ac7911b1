// FILE: internal/engine/errors.go
package engine

import "errors"

// The taxonomy below is stable: callers branch on these sentinels with
// errors.Is, messages are free to change.
var (
	// ErrInvalidTransition means the action is not legal from the current
	// state. Never retried automatically.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden means the actor lacks the required role or does not own
	// the instance.
	ErrForbidden = errors.New("forbidden")

	// ErrPaymentNotVerified means the target state requires a verified
	// payment attachment that is absent or not yet verified.
	ErrPaymentNotVerified = errors.New("payment not verified")

	// ErrNotFound means the instance or its payment attachment does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage wraps transaction failures. Safe to retry: no partial
	// state is ever committed.
	ErrStorage = errors.New("storage failure")
)
