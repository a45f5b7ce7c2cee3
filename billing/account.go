/*
Package billing contains the pure core of the tenancy billing engine: the
account-number grammar, the contact-code table, billing-period resolution,
and the pro-rata invoice split calculator.

KEY CONCEPTS:
  - AccountNumber: ABC001234/XX — property base, sequence digit, contact code
  - ContactCode:   the /XX suffix encoding billing frequency and terms
  - Period:        the inclusive date range one invoice covers
  - SplitAllocation: three-way day/amount partition of a period

DESIGN PRINCIPLES:
  1. Purity: nothing in this package performs I/O or mutates shared state
  2. Precision: decimal.Decimal everywhere money or rates are involved
  3. Explicitness: every failed precondition is a distinct, named error
*/
package billing

import (
	"fmt"
	"regexp"
)

// =============================================================================
// ACCOUNT NUMBER GRAMMAR
// =============================================================================

// Account number format: ABC001234/XX
//   - 3 uppercase letters + 5 digits: 8-char property base
//   - 9th character: sequence digit for successive accounts at the property
//   - /XX: contact code suffix (1-2 uppercase letters or digits)
var accountNumberPattern = regexp.MustCompile(`^([A-Z]{3}\d{5})(\d)(/[A-Z0-9]{1,2})$`)

// AccountNumber is the parsed form of a property account number. It is an
// immutable value: IncrementSequence returns a new value.
type AccountNumber struct {
	PropertyBase string // 8 chars, e.g. "ANP00104"
	Sequence     int    // single digit 0-9
	ContactCode  ContactCode
}

// ParseAccountNumber parses the full grammar. Any deviation fails with
// ErrInvalidAccountFormat; there is no partial parse.
func ParseAccountNumber(s string) (AccountNumber, error) {
	m := accountNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return AccountNumber{}, &InvalidAccountError{Input: s}
	}
	return AccountNumber{
		PropertyBase: m[1],
		Sequence:     int(m[2][0] - '0'),
		ContactCode:  ContactCode(m[3]),
	}, nil
}

// String reassembles the account number. Parse(String()) round-trips.
func (a AccountNumber) String() string {
	return fmt.Sprintf("%s%d%s", a.PropertyBase, a.Sequence, a.ContactCode)
}

// BaseAccount returns the 9-character base (property base + sequence digit).
// This is the join key between successive occupier accounts at one property.
func (a AccountNumber) BaseAccount() string {
	return fmt.Sprintf("%s%d", a.PropertyBase, a.Sequence)
}

// IncrementSequence returns a new account number with the sequence digit
// advanced by one. The sequence is a single decimal digit: incrementing
// past 9 fails with ErrSequenceOverflow.
func (a AccountNumber) IncrementSequence() (AccountNumber, error) {
	if a.Sequence >= 9 {
		return AccountNumber{}, fmt.Errorf("increment %s: %w", a.String(), ErrSequenceOverflow)
	}
	next := a
	next.Sequence++
	return next, nil
}

// WithContactCode returns a copy of the account number carrying a different
// contact code. Used when a successor occupier is billed on new terms.
func (a AccountNumber) WithContactCode(code ContactCode) AccountNumber {
	next := a
	next.ContactCode = code
	return next
}

// ValidAccountNumber reports whether s matches the grammar.
func ValidAccountNumber(s string) bool {
	_, err := ParseAccountNumber(s)
	return err == nil
}

// FormatContactName formats a contact display name according to the business
// convention: "ACCOUNT - (Flat X) Street" or "ACCOUNT - Street".
func FormatContactName(baseAccount, flatNumber, buildingAddress string) string {
	if flatNumber != "" {
		return fmt.Sprintf("%s - (%s) %s", baseAccount, flatNumber, buildingAddress)
	}
	return fmt.Sprintf("%s - %s", baseAccount, buildingAddress)
}
