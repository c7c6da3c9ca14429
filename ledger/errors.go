/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All ledger error types in one place. Everything here is local and
  recoverable: nothing the ledger returns is fatal to the process, and a
  failed mutation leaves the persisted records unchanged.

ERROR CATEGORIES:
  1. Validation errors - empty required fields, unknown ids, bad input
  2. No-op conditions  - settling a payout that nets nothing
  3. Policy errors     - deleting a person who has history

USAGE:
  if errors.Is(err, ledger.ErrNothingToPay) { ... }

  var npe *ledger.NothingToPayError
  if errors.As(err, &npe) { fmt.Println(npe.Net) }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all synchronous input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidDateKey is returned for a day string that is not "YYYY-MM-DD".
	ErrInvalidDateKey = errors.New("invalid date key")

	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrPersonNotFound is returned when a referenced person doesn't exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrTaskNotFound is returned when a referenced task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPersonHasHistory is returned when deleting a person who is still
	// referenced by completions, adjustments, or payouts.
	ErrPersonHasHistory = errors.New("person has ledger history")

	// ErrNothingToPay is the no-op settlement condition: the effective
	// range nets zero or fewer points. Reported, never fatal.
	ErrNothingToPay = errors.New("nothing to pay")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the rejected field and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NothingToPayError reports the empty-or-negative settlement attempt.
type NothingToPayError struct {
	PersonID PersonID
	Start    DateKey
	End      DateKey
	Net      int
}

func (e *NothingToPayError) Error() string {
	return fmt.Sprintf("nothing to pay for %s over [%s, %s]: net %d points",
		e.PersonID, e.Start, e.End, e.Net)
}

func (e *NothingToPayError) Unwrap() error { return ErrNothingToPay }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is an input rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidDateKey) ||
		errors.Is(err, ErrInvalidRange)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) || errors.Is(err, ErrTaskNotFound)
}
