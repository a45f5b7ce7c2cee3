package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
	"github.com/brae/tenancy-engine/ledger/store"
)

func date(y int, m time.Month, d int) billing.Date { return billing.NewDate(y, m, d) }

func seedContact(t *testing.T, mem *store.Memory, accountNumber string) *ledger.Contact {
	t.Helper()
	c, err := mem.CreateContact(context.Background(), ledger.Contact{
		Name:          accountNumber + " - (2F1) 10 Anderson Place",
		AccountNumber: accountNumber,
		FirstName:     "June",
	})
	require.NoError(t, err)
	return c
}

func seedInvoice(t *testing.T, mem *store.Memory, contactID string, d billing.Date, total string) *ledger.Invoice {
	t.Helper()
	inv, err := mem.CreateInvoice(context.Background(), ledger.Invoice{
		ContactID: contactID,
		Status:    ledger.InvoiceStatusAuthorised,
		Date:      d,
		Total:     billing.ParseMoneyOrZero(total),
		LineItems: []ledger.LineItem{{
			Description: "Service charge",
			Quantity:    decimal.NewFromInt(1),
			LineAmount:  billing.ParseMoneyOrZero(total),
		}},
	})
	require.NoError(t, err)
	return inv
}

// =============================================================================
// INVOICES
// =============================================================================

func TestMemory_CreateInvoice_Defaults(t *testing.T) {
	mem := store.NewMemory()
	c := seedContact(t, mem, "ANP001041/1A")

	inv := seedInvoice(t, mem, c.ID, date(2025, time.February, 1), "280.00")
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, "280.00", inv.AmountDue.String(), "amount due defaults to total")

	second := seedInvoice(t, mem, c.ID, date(2025, time.March, 1), "10.00")
	assert.Equal(t, "INV-0002", second.Number)
}

func TestMemory_GetInvoice_NotFound(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.GetInvoice(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrInvoiceNotFound)
	assert.True(t, ledger.IsNotFound(err))
}

func TestMemory_FindLatestUnpaidInvoice(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")

	seedInvoice(t, mem, c.ID, date(2025, time.January, 1), "280.00")
	newest := seedInvoice(t, mem, c.ID, date(2025, time.February, 1), "95.50")

	found, err := mem.FindLatestUnpaidInvoice(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, newest.ID, found.ID)
}

func TestMemory_FindLatestUnpaidInvoice_NoneIsNilNil(t *testing.T) {
	mem := store.NewMemory()
	c := seedContact(t, mem, "ANP001041/1A")

	found, err := mem.FindLatestUnpaidInvoice(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemory_UpdateLineItems_RecomputesTotals(t *testing.T) {
	// GIVEN: a 280.00 invoice fully owed
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")
	inv := seedInvoice(t, mem, c.ID, date(2025, time.February, 1), "280.00")

	// WHEN: the line set is replaced with a 130.00 line
	err := mem.UpdateLineItems(ctx, inv.ID, []ledger.LineItem{{
		Description: "Service charge (reduced)",
		Quantity:    decimal.NewFromInt(1),
		LineAmount:  billing.ParseMoneyOrZero("130.00"),
	}})
	require.NoError(t, err)

	// THEN: total follows the lines and amount due shrinks by the delta
	updated, err := mem.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "130.00", updated.Total.String())
	assert.Equal(t, "130.00", updated.AmountDue.String())
	require.Len(t, updated.LineItems, 1)
}

func TestMemory_SearchInvoicesFromDate_NewestFirst(t *testing.T) {
	mem := store.NewMemory()
	c := seedContact(t, mem, "ANP001041/1A")
	old := seedInvoice(t, mem, c.ID, date(2025, time.January, 1), "280.00")
	mid := seedInvoice(t, mem, c.ID, date(2025, time.February, 16), "95.50")
	newest := seedInvoice(t, mem, c.ID, date(2025, time.April, 1), "280.00")

	found, err := mem.SearchInvoicesFromDate(context.Background(), c.ID, date(2025, time.February, 1))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, newest.ID, found[0].ID)
	assert.Equal(t, mid.ID, found[1].ID)
	_ = old
}

func TestMemory_ReassignInvoice(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	from := seedContact(t, mem, "ANP001041/1A")
	to := seedContact(t, mem, "ANP001042/1A")
	inv := seedInvoice(t, mem, from.ID, date(2025, time.April, 1), "280.00")

	require.NoError(t, mem.ReassignInvoice(ctx, inv.ID, to.ID))

	moved, err := mem.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.ContactID)

	assert.ErrorIs(t, mem.ReassignInvoice(ctx, "missing", to.ID), ledger.ErrInvoiceNotFound)
	assert.ErrorIs(t, mem.ReassignInvoice(ctx, inv.ID, "missing"), ledger.ErrContactNotFound)
}

// =============================================================================
// CONTACTS
// =============================================================================

func TestMemory_Contacts(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")

	byAccount, err := mem.FindContactByAccountNumber(ctx, "ANP001041/1A")
	require.NoError(t, err)
	require.NotNil(t, byAccount)
	assert.Equal(t, c.ID, byAccount.ID)

	missing, err := mem.FindContactByAccountNumber(ctx, "ZZZ999999/1A")
	require.NoError(t, err, "no match is not an error")
	assert.Nil(t, missing)

	_, err = mem.CreateContact(ctx, ledger.Contact{AccountNumber: "ANP001041/1A", Name: "dup", FirstName: "x"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)
}

func TestMemory_UpdateContact_NonZeroFieldsOnly(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")

	err := mem.UpdateContact(ctx, ledger.Contact{
		ID:     c.ID,
		Status: ledger.ContactStatusInactive,
	})
	require.NoError(t, err)

	updated, err := mem.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ContactStatusInactive, updated.Status)
	assert.Equal(t, "ANP001041/1A", updated.AccountNumber, "untouched fields survive")
	assert.Equal(t, c.Name, updated.Name)
}

func TestMemory_OutstandingBalance(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")
	seedInvoice(t, mem, c.ID, date(2025, time.January, 1), "280.00")
	seedInvoice(t, mem, c.ID, date(2025, time.February, 1), "95.50")

	balance, err := mem.OutstandingBalance(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "375.50", balance.String())

	_, err = mem.OutstandingBalance(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrContactNotFound)
}

// =============================================================================
// GROUPS
// =============================================================================

func TestMemory_Groups(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")

	g, err := mem.AddGroup("ANP001 Anderson Place")
	require.NoError(t, err)

	require.NoError(t, mem.AddContactToGroup(ctx, c.ID, g.ID))

	groups, err := mem.ListGroupsForContact(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	byName, err := mem.FindGroupByName(ctx, "ANP001 Anderson Place")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byName.ID)

	_, err = mem.FindGroupByName(ctx, "nope")
	assert.ErrorIs(t, err, ledger.ErrGroupNotFound)

	byPrefix, err := mem.FindGroupByPrefix(ctx, "ANP001")
	require.NoError(t, err)
	require.NotNil(t, byPrefix)
	assert.Equal(t, g.ID, byPrefix.ID)

	noMatch, err := mem.FindGroupByPrefix(ctx, "ZZZ")
	require.NoError(t, err)
	assert.Nil(t, noMatch)

	require.NoError(t, mem.RemoveContactFromGroup(ctx, c.ID, g.ID))
	groups, err = mem.ListGroupsForContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

// =============================================================================
// REPEATING INVOICES
// =============================================================================

func TestMemory_RepeatingInvoices(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	c := seedContact(t, mem, "ANP001041/1A")

	tmpl, err := mem.CreateRepeatingInvoice(ctx, ledger.RepeatingInvoice{
		ContactID: c.ID,
		Status:    ledger.RepeatingStatusAuthorised,
		Reference: "Service charge Q",
		Schedule:  ledger.RepeatSchedule{Period: 3, Unit: "MONTHLY"},
		Total:     billing.ParseMoneyOrZero("280.00"),
	})
	require.NoError(t, err)

	listed, err := mem.ListRepeatingInvoices(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Deletion is a soft status change; deleted templates leave listings.
	require.NoError(t, mem.DeleteRepeatingInvoice(ctx, tmpl.ID))
	listed, err = mem.ListRepeatingInvoices(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, mem.DeleteRepeatingInvoice(ctx, "missing"), ledger.ErrTemplateNotFound)
}
