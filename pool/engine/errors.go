package engine

import "errors"

// Standard rejection errors of the accounting engine. Every externally
// observable failure is one of these (possibly wrapped with context); no
// failure is silently swallowed.
var (
	// ErrInvalidAmount rejects zero or negative amounts before any state change.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance rejects operations exceeding the caller's balance.
	ErrInsufficientBalance = errors.New("insufficient locked balance")

	// ErrNothingToRelease rejects a withdrawal completion with no mature
	// records, and an emergency withdrawal with nothing to sweep. Repeated
	// premature calls fail here rather than silently succeeding.
	ErrNothingToRelease = errors.New("nothing to release")

	// ErrClaimFailed rejects a reward claim whose settlement-channel call
	// failed; no reward is distributed.
	ErrClaimFailed = errors.New("settlement claim failed")

	// ErrNoRewards rejects a user reward claim with a zero unclaimed balance.
	ErrNoRewards = errors.New("no unclaimed rewards")

	// ErrFeeTooHigh rejects an operator fee above the basis-point bound.
	ErrFeeTooHigh = errors.New("fee exceeds maximum")

	// ErrNotOperator rejects operator-only calls from any other identity.
	ErrNotOperator = errors.New("caller is not the operator")

	// ErrNotPendingOperator rejects an operator-transfer acceptance from any
	// identity other than the proposed successor.
	ErrNotPendingOperator = errors.New("caller is not the pending operator")

	// ErrPaused rejects pause-gated calls while the gate is closed.
	// Withdrawal paths never fail with this error.
	ErrPaused = errors.New("pool is paused")

	// ErrZeroAddress rejects the zero sentinel where a real identity is required.
	ErrZeroAddress = errors.New("zero address")
)
