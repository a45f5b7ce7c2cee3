/*
store.go - Store interfaces for the accounting platform

PURPOSE:
  Defines the operations the tenancy workflows need from the accounting
  platform. Implementations decide where the data lives; the workflows only
  see these interfaces.

CONVENTIONS:
  - "Not found" is a nil result for searches (FindLatestUnpaidInvoice) and a
    sentinel error for direct lookups (GetInvoice). Callers can always
    distinguish "nothing there" from "operation failed".
  - Line-item writes are whole-set replacement, not a diff: the platform
    replaces the invoice's line items with exactly what is passed.
  - No compensating transactions. The split executor's two writes are
    independent; see tenancy/splitter.go for how partial failure surfaces.

IMPLEMENTATIONS:
  - store/memory.go:        in-memory, for tests and dev
  - ../store/sqlite:        SQLite-backed standalone mode
*/
package ledger

import (
	"context"
	"errors"

	"github.com/brae/tenancy-engine/billing"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrGroupNotFound    = errors.New("contact group not found")
	ErrTemplateNotFound = errors.New("repeating invoice template not found")
	ErrDuplicateAccount = errors.New("account number already in use")
)

// IsNotFound returns true if the error indicates a missing record rather
// than a failed operation.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrContactNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrTemplateNotFound)
}

// =============================================================================
// INVOICE STORE
// =============================================================================

type InvoiceStore interface {
	// GetInvoice returns the invoice with full line items.
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)

	// FindLatestUnpaidInvoice selects, among the contact's invoices ordered
	// newest first, the first with amount due greater than zero. Returns
	// (nil, nil) when the contact has no unpaid invoices.
	FindLatestUnpaidInvoice(ctx context.Context, contactID string) (*Invoice, error)

	// SearchInvoicesFromDate returns the contact's invoices issued on or
	// after the given date, newest first. Used to pick up invoices raised
	// against the old occupier after the new one moved in.
	SearchInvoicesFromDate(ctx context.Context, contactID string, from billing.Date) ([]Invoice, error)

	// UpdateLineItems replaces the invoice's whole line-item set.
	UpdateLineItems(ctx context.Context, invoiceID string, items []LineItem) error

	// CreateInvoice creates a new invoice and returns it with its assigned
	// ID and number.
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)

	// ReassignInvoice moves an invoice to a different contact.
	ReassignInvoice(ctx context.Context, invoiceID, newContactID string) error
}

// =============================================================================
// CONTACT STORE
// =============================================================================

type ContactStore interface {
	GetContact(ctx context.Context, contactID string) (*Contact, error)

	// FindContactByAccountNumber returns (nil, nil) when no contact carries
	// the account number.
	FindContactByAccountNumber(ctx context.Context, accountNumber string) (*Contact, error)

	CreateContact(ctx context.Context, c Contact) (*Contact, error)

	// UpdateContact applies the non-zero fields of the given contact record
	// to the stored contact with the same ID.
	UpdateContact(ctx context.Context, c Contact) error

	// OutstandingBalance returns the contact's receivable balance still due.
	OutstandingBalance(ctx context.Context, contactID string) (billing.Money, error)
}

// =============================================================================
// CONTACT GROUP STORE
// =============================================================================

type ContactGroupStore interface {
	// ListGroupsForContact returns every group the contact belongs to.
	ListGroupsForContact(ctx context.Context, contactID string) ([]ContactGroup, error)

	// FindGroupByName returns the group with the exact name, or
	// ErrGroupNotFound.
	FindGroupByName(ctx context.Context, name string) (*ContactGroup, error)

	// FindGroupByPrefix returns the first group whose name starts with the
	// prefix, or (nil, nil) when none matches. Property groups are matched
	// by the 6-character account prefix.
	FindGroupByPrefix(ctx context.Context, prefix string) (*ContactGroup, error)

	AddContactToGroup(ctx context.Context, contactID, groupID string) error
	RemoveContactFromGroup(ctx context.Context, contactID, groupID string) error
}

// =============================================================================
// REPEATING INVOICE STORE
// =============================================================================

type RepeatingInvoiceStore interface {
	// ListRepeatingInvoices returns the contact's active templates.
	ListRepeatingInvoices(ctx context.Context, contactID string) ([]RepeatingInvoice, error)

	CreateRepeatingInvoice(ctx context.Context, tmpl RepeatingInvoice) (*RepeatingInvoice, error)

	// DeleteRepeatingInvoice marks the template DELETED. The platform keeps
	// the record; it simply stops generating invoices.
	DeleteRepeatingInvoice(ctx context.Context, templateID string) error
}

// Store is the full platform surface the workflows need.
type Store interface {
	InvoiceStore
	ContactStore
	ContactGroupStore
	RepeatingInvoiceStore
}
