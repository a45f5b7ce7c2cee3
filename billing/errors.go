/*
errors.go - Centralized error types for the billing core

PURPOSE:
  All billing error conditions in one place. Workflow packages wrap these
  with operational context (which invoice, which phase).

ERROR CATEGORIES:
  1. Grammar errors  - Account-number parsing and sequence arithmetic
  2. Schedule errors - Contact codes with no billable schedule
  3. Split errors    - Date preconditions for the pro-rata calculator

USAGE:
  Callers distinguish conditions with errors.Is/errors.As:

    if errors.Is(err, billing.ErrSequenceOverflow) { ... }

    var oor *billing.OutOfRangeError
    if errors.As(err, &oor) { report(oor.Field, oor.Period) }

SEE ALSO:
  - account.go: Grammar errors
  - period.go:  Frequency errors
  - split.go:   Precondition errors
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAccountFormat is returned when an account number does not
	// match the ABC001234/XX grammar. No partial parse is ever returned.
	ErrInvalidAccountFormat = errors.New("invalid account number format")

	// ErrSequenceOverflow is returned when incrementing a sequence digit
	// past 9. The sequence is a single-digit field; this is a hard format
	// constraint, not something to widen silently.
	ErrSequenceOverflow = errors.New("account sequence overflow: digit would exceed 9")

	// ErrUnknownContactCode is returned when a contact code is not in the
	// canonical table. Callers must treat this as "cannot split".
	ErrUnknownContactCode = errors.New("unknown contact code")

	// ErrUnsupportedFrequency is returned when a schedule is not monthly or
	// quarterly (one-off, irregular, none). Such accounts are never split.
	ErrUnsupportedFrequency = errors.New("billing frequency does not support period resolution")

	// ErrDateOutOfRange is returned when a vacate or move-in date falls
	// outside the resolved billing period.
	ErrDateOutOfRange = errors.New("date outside billing period")

	// ErrMoveInNotAfterVacate is returned when the move-in date is on or
	// before the vacate date. A strictly positive gap is required for the
	// void period to be well-formed, even a zero-length one.
	ErrMoveInNotAfterVacate = errors.New("move-in date must be after vacate date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAccountError reports the input that failed the grammar.
type InvalidAccountError struct {
	Input string
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid account number format: %q", e.Input)
}

func (e *InvalidAccountError) Unwrap() error { return ErrInvalidAccountFormat }

// UnknownContactCodeError reports a code missing from the canonical table.
type UnknownContactCodeError struct {
	Code ContactCode
}

func (e *UnknownContactCodeError) Error() string {
	return fmt.Sprintf("unknown contact code: %q", string(e.Code))
}

func (e *UnknownContactCodeError) Unwrap() error { return ErrUnknownContactCode }

// UnsupportedFrequencyError names the frequency that blocked resolution.
type UnsupportedFrequencyError struct {
	Frequency Frequency
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("cannot resolve billing period for %s frequency", e.Frequency)
}

func (e *UnsupportedFrequencyError) Unwrap() error { return ErrUnsupportedFrequency }

// OutOfRangeError names the violated precondition: which date field fell
// outside which period.
type OutOfRangeError struct {
	Field  string // "vacate_date" or "move_in_date"
	Date   Date
	Period Period
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %s outside billing period %s", e.Field, e.Date, e.Period)
}

func (e *OutOfRangeError) Unwrap() error { return ErrDateOutOfRange }

// OrderingError reports a move-in on or before the vacate date.
type OrderingError struct {
	VacateDate Date
	MoveInDate Date
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("move-in date %s must be after vacate date %s", e.MoveInDate, e.VacateDate)
}

func (e *OrderingError) Unwrap() error { return ErrMoveInNotAfterVacate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid operator input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAccountFormat) ||
		errors.Is(err, ErrSequenceOverflow) ||
		errors.Is(err, ErrUnknownContactCode) ||
		errors.Is(err, ErrUnsupportedFrequency) ||
		errors.Is(err, ErrDateOutOfRange) ||
		errors.Is(err, ErrMoveInNotAfterVacate) ||
		errors.Is(err, ErrInvalidPeriod)
}
