// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	invoices  map[string]ledger.Invoice
	contacts  map[string]ledger.Contact
	groups    map[string]ledger.ContactGroup
	members   map[string]map[string]bool // groupID -> contactID set
	templates map[string]ledger.RepeatingInvoice
	nextNum   int
}

func NewMemory() *Memory {
	return &Memory{
		invoices:  make(map[string]ledger.Invoice),
		contacts:  make(map[string]ledger.Contact),
		groups:    make(map[string]ledger.ContactGroup),
		members:   make(map[string]map[string]bool),
		templates: make(map[string]ledger.RepeatingInvoice),
		nextNum:   1,
	}
}

var _ ledger.Store = (*Memory)(nil)

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) GetInvoice(_ context.Context, invoiceID string) (*ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, ledger.ErrInvoiceNotFound
	}
	out := cloneInvoice(inv)
	return &out, nil
}

func (m *Memory) FindLatestUnpaidInvoice(_ context.Context, contactID string) (*ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inv := range m.invoicesByContactNewestFirst(contactID) {
		if inv.AmountDue.IsPositive() {
			out := cloneInvoice(inv)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) SearchInvoicesFromDate(_ context.Context, contactID string, from billing.Date) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoicesByContactNewestFirst(contactID) {
		if inv.Date.AfterOrEqual(from) {
			result = append(result, cloneInvoice(inv))
		}
	}
	return result, nil
}

func (m *Memory) UpdateLineItems(_ context.Context, invoiceID string, items []ledger.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[invoiceID]
	if !ok {
		return ledger.ErrInvoiceNotFound
	}

	// Whole-set replacement; total follows the new line amounts, and the
	// amount due shrinks by the same delta the total did.
	var total billing.Money
	for _, item := range items {
		total = total.Add(item.LineAmount)
	}
	delta := inv.Total.Sub(total)
	inv.LineItems = append([]ledger.LineItem(nil), items...)
	inv.Total = total
	inv.AmountDue = inv.AmountDue.Sub(delta)
	m.invoices[invoiceID] = inv
	return nil
}

func (m *Memory) CreateInvoice(_ context.Context, inv ledger.Invoice) (*ledger.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv.ID = uuid.NewString()
	if inv.Number == "" {
		inv.Number = nextInvoiceNumber(&m.nextNum)
	}
	// A freshly raised invoice is fully owed; paid or voided documents
	// keep whatever amount due they arrived with.
	if inv.AmountDue.IsZero() && inv.Status != ledger.InvoiceStatusPaid && inv.Status != ledger.InvoiceStatusVoided {
		inv.AmountDue = inv.Total
	}
	m.invoices[inv.ID] = cloneInvoice(inv)
	out := cloneInvoice(inv)
	return &out, nil
}

func (m *Memory) ReassignInvoice(_ context.Context, invoiceID, newContactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[invoiceID]
	if !ok {
		return ledger.ErrInvoiceNotFound
	}
	if _, ok := m.contacts[newContactID]; !ok {
		return ledger.ErrContactNotFound
	}
	inv.ContactID = newContactID
	m.invoices[invoiceID] = inv
	return nil
}

func (m *Memory) invoicesByContactNewestFirst(contactID string) []ledger.Invoice {
	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.ContactID == contactID {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Number > result[j].Number
	})
	return result
}

// =============================================================================
// CONTACTS
// =============================================================================

func (m *Memory) GetContact(_ context.Context, contactID string) (*ledger.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[contactID]
	if !ok {
		return nil, ledger.ErrContactNotFound
	}
	return &c, nil
}

func (m *Memory) FindContactByAccountNumber(_ context.Context, accountNumber string) (*ledger.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.contacts {
		if c.AccountNumber == accountNumber {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateContact(_ context.Context, c ledger.Contact) (*ledger.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.contacts {
		if existing.AccountNumber == c.AccountNumber {
			return nil, ledger.ErrDuplicateAccount
		}
	}
	c.ID = uuid.NewString()
	if c.Status == "" {
		c.Status = ledger.ContactStatusActive
	}
	m.contacts[c.ID] = c
	return &c, nil
}

func (m *Memory) UpdateContact(_ context.Context, c ledger.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.contacts[c.ID]
	if !ok {
		return ledger.ErrContactNotFound
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
	m.contacts[c.ID] = existing
	return nil
}

func (m *Memory) OutstandingBalance(_ context.Context, contactID string) (billing.Money, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.contacts[contactID]; !ok {
		return billing.Money{}, ledger.ErrContactNotFound
	}
	var total billing.Money
	for _, inv := range m.invoices {
		if inv.ContactID == contactID {
			total = total.Add(inv.AmountDue)
		}
	}
	return total, nil
}

// =============================================================================
// CONTACT GROUPS
// =============================================================================

// AddGroup seeds a group (test/dev helper; the platform manages groups).
func (m *Memory) AddGroup(name string) (ledger.ContactGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := ledger.ContactGroup{ID: uuid.NewString(), Name: name, Status: "ACTIVE"}
	m.groups[g.ID] = g
	m.members[g.ID] = make(map[string]bool)
	return g, nil
}

func (m *Memory) ListGroupsForContact(_ context.Context, contactID string) ([]ledger.ContactGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.ContactGroup
	for groupID, contactIDs := range m.members {
		if contactIDs[contactID] {
			result = append(result, m.groups[groupID])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) FindGroupByName(_ context.Context, name string) (*ledger.ContactGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.Name == name {
			out := g
			return &out, nil
		}
	}
	return nil, ledger.ErrGroupNotFound
}

func (m *Memory) FindGroupByPrefix(_ context.Context, prefix string) (*ledger.ContactGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	byName := make(map[string]ledger.ContactGroup)
	for _, g := range m.groups {
		names = append(names, g.Name)
		byName[g.Name] = g
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out := byName[name]
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) AddContactToGroup(_ context.Context, contactID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[groupID]; !ok {
		return ledger.ErrGroupNotFound
	}
	if _, ok := m.contacts[contactID]; !ok {
		return ledger.ErrContactNotFound
	}
	m.members[groupID][contactID] = true
	return nil
}

func (m *Memory) RemoveContactFromGroup(_ context.Context, contactID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[groupID]; !ok {
		return ledger.ErrGroupNotFound
	}
	delete(m.members[groupID], contactID)
	return nil
}

// =============================================================================
// REPEATING INVOICES
// =============================================================================

func (m *Memory) ListRepeatingInvoices(_ context.Context, contactID string) ([]ledger.RepeatingInvoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.RepeatingInvoice
	for _, tmpl := range m.templates {
		if tmpl.ContactID == contactID && tmpl.Status != ledger.RepeatingStatusDeleted {
			result = append(result, tmpl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) CreateRepeatingInvoice(_ context.Context, tmpl ledger.RepeatingInvoice) (*ledger.RepeatingInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contacts[tmpl.ContactID]; !ok {
		return nil, ledger.ErrContactNotFound
	}
	tmpl.ID = uuid.NewString()
	m.templates[tmpl.ID] = tmpl
	out := tmpl
	return &out, nil
}

func (m *Memory) DeleteRepeatingInvoice(_ context.Context, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tmpl, ok := m.templates[templateID]
	if !ok {
		return ledger.ErrTemplateNotFound
	}
	tmpl.Status = ledger.RepeatingStatusDeleted
	m.templates[templateID] = tmpl
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func cloneInvoice(inv ledger.Invoice) ledger.Invoice {
	out := inv
	out.LineItems = append([]ledger.LineItem(nil), inv.LineItems...)
	return out
}

func nextInvoiceNumber(counter *int) string {
	n := *counter
	*counter++
	return fmt.Sprintf("INV-%04d", n)
}
