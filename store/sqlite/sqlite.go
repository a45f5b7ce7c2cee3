/*
Package sqlite provides a SQLite-backed implementation of the ledger store
interfaces.

PURPOSE:
  Standalone/dev mode: the engine runs against a local mirror of the
  accounting data instead of the live platform. The same interfaces are
  implemented by the in-memory store (tests) and, in deployment, by a real
  platform client.

KEY TABLES:
  contacts:           Occupier records keyed by account number
  invoices:           Invoices with line items stored as JSON
  contact_groups:     Named groups (per-property and archival)
  group_members:      Group membership
  repeating_invoices: Recurring billing templates

REPRESENTATION:
  Money is stored as decimal strings, never floats. Dates are ISO strings.
  Line items and schedules are JSON columns: the platform treats them as
  whole-document replacements, so there is nothing to query inside them.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block and
  crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/tenancy.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go:        interface definitions
  - ledger/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_number TEXT NOT NULL UNIQUE,
		first_name TEXT,
		last_name TEXT,
		email TEXT,
		status TEXT NOT NULL,
		defaults_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		date TEXT NOT NULL,
		due_date TEXT,
		line_amount_types TEXT,
		currency_code TEXT,
		reference TEXT,
		branding_theme_id TEXT,
		total TEXT NOT NULL,
		amount_due TEXT NOT NULL,
		line_items_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Newest-first scans per contact (unpaid-invoice selection)
	CREATE INDEX IF NOT EXISTS idx_invoices_contact_date
		ON invoices(contact_id, date DESC);

	CREATE TABLE IF NOT EXISTS contact_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL REFERENCES contact_groups(id),
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		PRIMARY KEY (group_id, contact_id)
	);

	CREATE TABLE IF NOT EXISTS repeating_invoices (
		id TEXT PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		reference TEXT,
		line_amount_types TEXT,
		currency_code TEXT,
		branding_theme_id TEXT,
		approved_for_sending INTEGER NOT NULL DEFAULT 0,
		schedule_json TEXT NOT NULL,
		line_items_json TEXT NOT NULL,
		total TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_repeating_contact
		ON repeating_invoices(contact_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = `id, number, contact_id, type, status, date, due_date,
	line_amount_types, currency_code, reference, branding_theme_id,
	total, amount_due, line_items_json`

func (s *Store) GetInvoice(ctx context.Context, invoiceID string) (*ledger.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, invoiceID)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Store) FindLatestUnpaidInvoice(ctx context.Context, contactID string) (*ledger.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		 WHERE contact_id = ? ORDER BY date DESC, number DESC`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		if inv.AmountDue.IsPositive() {
			return inv, nil
		}
	}
	return nil, rows.Err()
}

func (s *Store) SearchInvoicesFromDate(ctx context.Context, contactID string, from billing.Date) ([]ledger.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		 WHERE contact_id = ? AND date >= ? ORDER BY date DESC, number DESC`,
		contactID, from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

func (s *Store) UpdateLineItems(ctx context.Context, invoiceID string, items []ledger.LineItem) error {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	var total billing.Money
	for _, item := range items {
		total = total.Add(item.LineAmount)
	}
	delta := inv.Total.Sub(total)
	amountDue := inv.AmountDue.Sub(delta)

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE invoices SET line_items_json = ?, total = ?, amount_due = ? WHERE id = ?`,
		string(itemsJSON), total.String(), amountDue.String(), invoiceID)
	return err
}

func (s *Store) CreateInvoice(ctx context.Context, inv ledger.Invoice) (*ledger.Invoice, error) {
	inv.ID = uuid.NewString()
	if inv.Number == "" {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
			return nil, err
		}
		inv.Number = fmt.Sprintf("INV-%04d", n+1)
	}
	if inv.AmountDue.IsZero() && inv.Status != ledger.InvoiceStatusPaid && inv.Status != ledger.InvoiceStatusVoided {
		inv.AmountDue = inv.Total
	}

	itemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return nil, err
	}
	dueDate := ""
	if !inv.DueDate.IsZero() {
		dueDate = inv.DueDate.String()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.ContactID, string(inv.Type), string(inv.Status),
		inv.Date.String(), dueDate, inv.LineAmountTypes,
		inv.CurrencyCode, inv.Reference, inv.BrandingThemeID,
		inv.Total.String(), inv.AmountDue.String(), string(itemsJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) ReassignInvoice(ctx context.Context, invoiceID, newContactID string) error {
	if _, err := s.GetContact(ctx, newContactID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET contact_id = ? WHERE id = ?`, newContactID, invoiceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrInvoiceNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*ledger.Invoice, error) {
	var inv ledger.Invoice
	var typ, status, dateStr, dueStr, totalStr, dueAmountStr, itemsJSON string
	err := row.Scan(&inv.ID, &inv.Number, &inv.ContactID, &typ, &status,
		&dateStr, &dueStr, &inv.LineAmountTypes, &inv.CurrencyCode,
		&inv.Reference, &inv.BrandingThemeID, &totalStr, &dueAmountStr, &itemsJSON)
	if err != nil {
		return nil, err
	}
	inv.Type = ledger.InvoiceType(typ)
	inv.Status = ledger.InvoiceStatus(status)
	if inv.Date, err = billing.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("invoice %s: bad date %q", inv.ID, dateStr)
	}
	if dueStr != "" {
		if inv.DueDate, err = billing.ParseDate(dueStr); err != nil {
			return nil, fmt.Errorf("invoice %s: bad due date %q", inv.ID, dueStr)
		}
	}
	if inv.Total, err = billing.ParseMoney(totalStr); err != nil {
		return nil, err
	}
	if inv.AmountDue, err = billing.ParseMoney(dueAmountStr); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &inv.LineItems); err != nil {
		return nil, fmt.Errorf("invoice %s: bad line items: %w", inv.ID, err)
	}
	return &inv, nil
}

// =============================================================================
// CONTACTS
// =============================================================================

// contactDefaults holds the billing defaults serialized into defaults_json.
type contactDefaults struct {
	DefaultCurrency  string           `json:"default_currency,omitempty"`
	SalesAccountCode string           `json:"sales_account_code,omitempty"`
	PaymentTerms     string           `json:"payment_terms,omitempty"`
	BrandingThemeID  string           `json:"branding_theme_id,omitempty"`
	Addresses        []ledger.Address `json:"addresses,omitempty"`
	Phones           []ledger.Phone   `json:"phones,omitempty"`
}

func (s *Store) GetContact(ctx context.Context, contactID string) (*ledger.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, account_number, first_name, last_name, email, status, defaults_json
		 FROM contacts WHERE id = ?`, contactID)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrContactNotFound
	}
	return c, err
}

func (s *Store) FindContactByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, account_number, first_name, last_name, email, status, defaults_json
		 FROM contacts WHERE account_number = ?`, accountNumber)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *Store) CreateContact(ctx context.Context, c ledger.Contact) (*ledger.Contact, error) {
	existing, err := s.FindContactByAccountNumber(ctx, c.AccountNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ledger.ErrDuplicateAccount
	}

	c.ID = uuid.NewString()
	if c.Status == "" {
		c.Status = ledger.ContactStatusActive
	}
	defaultsJSON, err := json.Marshal(contactDefaults{
		DefaultCurrency:  c.DefaultCurrency,
		SalesAccountCode: c.SalesAccountCode,
		PaymentTerms:     c.PaymentTerms,
		BrandingThemeID:  c.BrandingThemeID,
		Addresses:        c.Addresses,
		Phones:           c.Phones,
	})
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, account_number, first_name, last_name, email, status, defaults_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.AccountNumber, c.FirstName, c.LastName, c.EmailAddress,
		string(c.Status), string(defaultsJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateContact(ctx context.Context, c ledger.Contact) error {
	existing, err := s.GetContact(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.AccountNumber != "" {
		existing.AccountNumber = c.AccountNumber
	}
	if c.Name != "" {
		existing.Name = c.Name
	}
	if c.Status != "" {
		existing.Status = c.Status
	}
	if c.EmailAddress != "" {
		existing.EmailAddress = c.EmailAddress
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE contacts SET name = ?, account_number = ?, email = ?, status = ? WHERE id = ?`,
		existing.Name, existing.AccountNumber, existing.EmailAddress, string(existing.Status), c.ID)
	return err
}

func (s *Store) OutstandingBalance(ctx context.Context, contactID string) (billing.Money, error) {
	if _, err := s.GetContact(ctx, contactID); err != nil {
		return billing.Money{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount_due FROM invoices WHERE contact_id = ?`, contactID)
	if err != nil {
		return billing.Money{}, err
	}
	defer rows.Close()

	var total billing.Money
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return billing.Money{}, err
		}
		amount, err := billing.ParseMoney(amountStr)
		if err != nil {
			return billing.Money{}, err
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func scanContact(row rowScanner) (*ledger.Contact, error) {
	var c ledger.Contact
	var status, defaultsJSON string
	err := row.Scan(&c.ID, &c.Name, &c.AccountNumber, &c.FirstName, &c.LastName,
		&c.EmailAddress, &status, &defaultsJSON)
	if err != nil {
		return nil, err
	}
	c.Status = ledger.ContactStatus(status)
	if defaultsJSON != "" {
		var defaults contactDefaults
		if err := json.Unmarshal([]byte(defaultsJSON), &defaults); err != nil {
			return nil, fmt.Errorf("contact %s: bad defaults: %w", c.ID, err)
		}
		c.DefaultCurrency = defaults.DefaultCurrency
		c.SalesAccountCode = defaults.SalesAccountCode
		c.PaymentTerms = defaults.PaymentTerms
		c.BrandingThemeID = defaults.BrandingThemeID
		c.Addresses = defaults.Addresses
		c.Phones = defaults.Phones
	}
	return &c, nil
}

// =============================================================================
// CONTACT GROUPS
// =============================================================================

// AddGroup seeds a group (dev helper; the platform manages groups).
func (s *Store) AddGroup(name string) (ledger.ContactGroup, error) {
	g := ledger.ContactGroup{ID: uuid.NewString(), Name: name, Status: "ACTIVE"}
	_, err := s.db.Exec(
		`INSERT INTO contact_groups (id, name, status) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.Status)
	return g, err
}

func (s *Store) ListGroupsForContact(ctx context.Context, contactID string) ([]ledger.ContactGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.status FROM contact_groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.contact_id = ? ORDER BY g.name`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.ContactGroup
	for rows.Next() {
		var g ledger.ContactGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Status); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *Store) FindGroupByName(ctx context.Context, name string) (*ledger.ContactGroup, error) {
	var g ledger.ContactGroup
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status FROM contact_groups WHERE name = ?`, name).
		Scan(&g.ID, &g.Name, &g.Status)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) FindGroupByPrefix(ctx context.Context, prefix string) (*ledger.ContactGroup, error) {
	var g ledger.ContactGroup
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status FROM contact_groups
		 WHERE name LIKE ? || '%' ORDER BY name LIMIT 1`, prefix).
		Scan(&g.ID, &g.Name, &g.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) AddContactToGroup(ctx context.Context, contactID, groupID string) error {
	if _, err := s.GetContact(ctx, contactID); err != nil {
		return err
	}
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_groups WHERE id = ?`, groupID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ledger.ErrGroupNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, contact_id) VALUES (?, ?)`,
		groupID, contactID)
	return err
}

func (s *Store) RemoveContactFromGroup(ctx context.Context, contactID, groupID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_groups WHERE id = ?`, groupID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ledger.ErrGroupNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND contact_id = ?`,
		groupID, contactID)
	return err
}

// =============================================================================
// REPEATING INVOICES
// =============================================================================

func (s *Store) ListRepeatingInvoices(ctx context.Context, contactID string) ([]ledger.RepeatingInvoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_id, type, status, reference, line_amount_types,
		        currency_code, branding_theme_id, approved_for_sending,
		        schedule_json, line_items_json, total
		 FROM repeating_invoices
		 WHERE contact_id = ? AND status != ? ORDER BY id`,
		contactID, string(ledger.RepeatingStatusDeleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.RepeatingInvoice
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tmpl)
	}
	return result, rows.Err()
}

func (s *Store) CreateRepeatingInvoice(ctx context.Context, tmpl ledger.RepeatingInvoice) (*ledger.RepeatingInvoice, error) {
	if _, err := s.GetContact(ctx, tmpl.ContactID); err != nil {
		return nil, err
	}
	tmpl.ID = uuid.NewString()

	scheduleJSON, err := json.Marshal(tmpl.Schedule)
	if err != nil {
		return nil, err
	}
	itemsJSON, err := json.Marshal(tmpl.LineItems)
	if err != nil {
		return nil, err
	}
	approved := 0
	if tmpl.ApprovedForSending {
		approved = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO repeating_invoices (id, contact_id, type, status, reference,
		  line_amount_types, currency_code, branding_theme_id, approved_for_sending,
		  schedule_json, line_items_json, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.ContactID, string(tmpl.Type), string(tmpl.Status), tmpl.Reference,
		tmpl.LineAmountTypes, tmpl.CurrencyCode, tmpl.BrandingThemeID, approved,
		string(scheduleJSON), string(itemsJSON), tmpl.Total.String())
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (s *Store) DeleteRepeatingInvoice(ctx context.Context, templateID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE repeating_invoices SET status = ? WHERE id = ?`,
		string(ledger.RepeatingStatusDeleted), templateID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row rowScanner) (*ledger.RepeatingInvoice, error) {
	var tmpl ledger.RepeatingInvoice
	var typ, status, scheduleJSON, itemsJSON, totalStr string
	var approved int
	err := row.Scan(&tmpl.ID, &tmpl.ContactID, &typ, &status, &tmpl.Reference,
		&tmpl.LineAmountTypes, &tmpl.CurrencyCode, &tmpl.BrandingThemeID,
		&approved, &scheduleJSON, &itemsJSON, &totalStr)
	if err != nil {
		return nil, err
	}
	tmpl.Type = ledger.InvoiceType(typ)
	tmpl.Status = ledger.RepeatingInvoiceStatus(status)
	tmpl.ApprovedForSending = approved != 0
	if err := json.Unmarshal([]byte(scheduleJSON), &tmpl.Schedule); err != nil {
		return nil, fmt.Errorf("template %s: bad schedule: %w", tmpl.ID, err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &tmpl.LineItems); err != nil {
		return nil, fmt.Errorf("template %s: bad line items: %w", tmpl.ID, err)
	}
	if tmpl.Total, err = billing.ParseMoney(totalStr); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
