/*
Package ledger models the external accounting platform's entities and the
store interfaces the tenancy workflows depend on.

PURPOSE:
  The workflows (invoice splitting, reassignment, contact retirement) never
  talk to the accounting platform directly; they go through the interfaces in
  store.go. Implementations can be the in-memory store (tests/dev), the
  SQLite store (standalone mode), or a real platform client.

KEY ENTITIES:
  Invoice / LineItem   - the documents the splitter mutates and creates
  Contact              - the occupier record keyed by account number
  RepeatingInvoice     - the recurring billing template reassigned on change
  ContactGroup         - named groupings (per-property and archival)

SEE ALSO:
  - store.go:        interfaces + sentinel errors
  - store/memory.go: in-memory implementation
  - ../store/sqlite: persistent implementation
*/
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/brae/tenancy-engine/billing"
)

// =============================================================================
// INVOICES
// =============================================================================

// InvoiceType distinguishes receivables from payables. Tenancy billing only
// ever deals in receivables, but the field is carried over on creation.
type InvoiceType string

const (
	InvoiceTypeReceivable InvoiceType = "ACCREC"
	InvoiceTypePayable    InvoiceType = "ACCPAY"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "DRAFT"
	InvoiceStatusSubmitted  InvoiceStatus = "SUBMITTED"
	InvoiceStatusAuthorised InvoiceStatus = "AUTHORISED"
	InvoiceStatusPaid       InvoiceStatus = "PAID"
	InvoiceStatusVoided     InvoiceStatus = "VOIDED"
)

// Invoice is an external entity, referenced not owned: the platform is the
// system of record and this struct mirrors what it returns.
type Invoice struct {
	ID              string
	Number          string
	ContactID       string
	Type            InvoiceType
	Status          InvoiceStatus
	Date            billing.Date
	DueDate         billing.Date
	LineAmountTypes string // "Exclusive", "Inclusive", "NoTax"
	CurrencyCode    string
	Reference       string
	BrandingThemeID string
	Total           billing.Money
	AmountDue       billing.Money
	LineItems       []LineItem
}

// LineItem invariant assumed by the scaler: LineAmount ≈ Quantity *
// UnitAmount, before and after scaling.
type LineItem struct {
	ID          string
	Description string
	Quantity    decimal.Decimal
	UnitAmount  billing.Money
	LineAmount  billing.Money
	AccountCode string
	TaxType     string

	// Optional fields: carried over on scaling only when present, never
	// synthesized or defaulted.
	ItemCode     string
	TaxAmount    *billing.Money
	DiscountRate *decimal.Decimal
	Tracking     []TrackingCategory
}

type TrackingCategory struct {
	Name   string
	Option string
}

// =============================================================================
// CONTACTS
// =============================================================================

type ContactStatus string

const (
	ContactStatusActive   ContactStatus = "ACTIVE"
	ContactStatusInactive ContactStatus = "INACTIVE"
	ContactStatusArchived ContactStatus = "ARCHIVED"
)

type Contact struct {
	ID            string
	Name          string // "ACCOUNT - (Flat X) Street"
	AccountNumber string
	FirstName     string
	LastName      string
	EmailAddress  string
	Status        ContactStatus

	// Billing defaults copied onto successor contacts when present.
	DefaultCurrency  string
	SalesAccountCode string
	PaymentTerms     string
	BrandingThemeID  string
	Addresses        []Address
	Phones           []Phone
}

type Address struct {
	Type       string // "STREET", "POBOX"
	Line1      string
	Line2      string
	City       string
	PostalCode string
}

type Phone struct {
	Type   string // "DEFAULT", "MOBILE"
	Number string
}

// =============================================================================
// REPEATING INVOICES
// =============================================================================

type RepeatingInvoiceStatus string

const (
	RepeatingStatusDraft      RepeatingInvoiceStatus = "DRAFT"
	RepeatingStatusAuthorised RepeatingInvoiceStatus = "AUTHORISED"
	RepeatingStatusDeleted    RepeatingInvoiceStatus = "DELETED"
)

// RepeatingInvoice is a recurring billing template. Reassignment to a new
// occupier recreates the template rather than editing it in place.
type RepeatingInvoice struct {
	ID                 string
	ContactID          string
	Type               InvoiceType
	Status             RepeatingInvoiceStatus
	Reference          string
	LineAmountTypes    string
	CurrencyCode       string
	BrandingThemeID    string
	ApprovedForSending bool
	Schedule           RepeatSchedule
	LineItems          []LineItem
	Total              billing.Money
}

// RepeatSchedule mirrors the platform's schedule block. Period+Unit express
// cadence ("every 1 MONTHLY"); NextScheduledDate drives when the next
// invoice is generated.
type RepeatSchedule struct {
	Period            int
	Unit              string // "WEEKLY", "MONTHLY"
	DueDate           int
	DueDateType       string // "DAYSAFTERBILLDATE", "OFFOLLOWINGMONTH"
	StartDate         billing.Date
	NextScheduledDate billing.Date
	EndDate           billing.Date
}

// =============================================================================
// CONTACT GROUPS
// =============================================================================

// PreviousAccountsGroupName is the archival group retired contacts with an
// outstanding balance are moved into.
const PreviousAccountsGroupName = "+ Previous accounts still due"

type ContactGroup struct {
	ID     string
	Name   string
	Status string
}
