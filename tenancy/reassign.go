package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// INVOICE REASSIGNMENT
// =============================================================================

// Reassigner moves invoices and recurring templates raised against the old
// occupier over to the new one.
type Reassigner struct {
	Invoices  ledger.InvoiceStore
	Templates ledger.RepeatingInvoiceStore
	Contacts  ledger.ContactStore
	Logger    *log.Logger
}

func NewReassigner(store ledger.Store) *Reassigner {
	return &Reassigner{Invoices: store, Templates: store, Contacts: store, Logger: log.Default()}
}

// FindReassignableInvoices lists the old contact's invoices issued on or
// after the move-in date, newest first. These were billed to the wrong
// occupier and are candidates for reassignment.
func (r *Reassigner) FindReassignableInvoices(ctx context.Context, oldContactID string, moveInDate billing.Date) ([]ledger.Invoice, error) {
	return r.Invoices.SearchInvoicesFromDate(ctx, oldContactID, moveInDate)
}

// ReassignmentOutcome reports which invoices moved and which failed.
// Failures do not stop the batch: each invoice is an independent write.
type ReassignmentOutcome struct {
	Reassigned []string
	Failed     map[string]error
}

// ReassignInvoices moves the selected invoices to the new contact, one
// independent write each.
func (r *Reassigner) ReassignInvoices(ctx context.Context, invoiceIDs []string, newContactID string) ReassignmentOutcome {
	outcome := ReassignmentOutcome{Failed: make(map[string]error)}
	for _, id := range invoiceIDs {
		if err := r.Invoices.ReassignInvoice(ctx, id, newContactID); err != nil {
			r.logf("reassign invoice %s: %v", id, err)
			outcome.Failed[id] = err
			continue
		}
		outcome.Reassigned = append(outcome.Reassigned, id)
	}
	return outcome
}

// =============================================================================
// REPEATING TEMPLATE REASSIGNMENT
// =============================================================================

// ErrNoTemplate is returned when the old contact has no active repeating
// invoice template.
var ErrNoTemplate = errors.New("no repeating invoice template found for contact")

// TemplateReassignment reports a template move. When OldDeleted is false the
// new template exists but the old one is still live and must be removed by
// hand; LeftoverTemplateID names it.
type TemplateReassignment struct {
	NewTemplate        *ledger.RepeatingInvoice
	OldDeleted         bool
	LeftoverTemplateID string
}

// ReassignTemplate moves the old contact's repeating invoice template to the
// new contact. Create-before-delete: the replacement template is created
// first, and only then is the old one deleted, so a failure can never leave
// the property with no template at all. A failed delete is reported as a
// partial success naming the leftover template.
func (r *Reassigner) ReassignTemplate(ctx context.Context, oldContactID, newContactID string) (*TemplateReassignment, error) {
	templates, err := r.Templates.ListRepeatingInvoices(ctx, oldContactID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplate
	}
	if len(templates) > 1 {
		r.logf("contact %s has %d repeating templates; reassigning the first", oldContactID, len(templates))
	}
	original := templates[0]

	replacement, err := r.buildReplacementTemplate(ctx, original, newContactID)
	if err != nil {
		return nil, err
	}

	created, err := r.Templates.CreateRepeatingInvoice(ctx, replacement)
	if err != nil {
		return nil, fmt.Errorf("create replacement template: %w", err)
	}

	result := &TemplateReassignment{NewTemplate: created}
	if err := r.Templates.DeleteRepeatingInvoice(ctx, original.ID); err != nil {
		r.logf("delete old template %s failed: %v - remove it manually", original.ID, err)
		result.LeftoverTemplateID = original.ID
		return result, nil
	}
	result.OldDeleted = true
	return result, nil
}

// buildReplacementTemplate copies the original template for the new contact.
// The schedule is preserved with StartDate pinned to NextScheduledDate so
// the platform does not restart the cadence from today. Templates are
// approved for sending only when the new contact has an email address;
// otherwise they are created authorised but unsent.
func (r *Reassigner) buildReplacementTemplate(ctx context.Context, original ledger.RepeatingInvoice, newContactID string) (ledger.RepeatingInvoice, error) {
	replacement := original
	replacement.ID = ""
	replacement.ContactID = newContactID
	replacement.LineItems = append([]ledger.LineItem(nil), original.LineItems...)

	if !original.Schedule.NextScheduledDate.IsZero() {
		replacement.Schedule.StartDate = original.Schedule.NextScheduledDate
	}

	contact, err := r.Contacts.GetContact(ctx, newContactID)
	if err != nil {
		return ledger.RepeatingInvoice{}, fmt.Errorf("load new contact %s: %w", newContactID, err)
	}
	if contact.EmailAddress != "" {
		replacement.ApprovedForSending = true
	} else {
		replacement.ApprovedForSending = false
		replacement.Status = ledger.RepeatingStatusAuthorised
	}
	return replacement, nil
}

func (r *Reassigner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
