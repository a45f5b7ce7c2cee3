/*
Package tenancy implements the occupier-change workflows: invoice splitting,
successor-contact creation, invoice and repeating-template reassignment, and
previous-contact retirement.

All side effects go through the ledger store interfaces. The billing core
stays pure; this package is where calculated allocations become writes
against the accounting platform.
*/
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
// SPLIT PHASES - Observable two-phase state machine
// =============================================================================

// SplitPhase tracks how far a split execution got. The two external writes
// (adjust original, create new) are independent calls with no compensating
// transaction, so the intermediate state must be observable: when phase 2
// fails the operator knows the original invoice has already been reduced and
// manual cleanup is needed.
type SplitPhase string

const (
	PhasePending          SplitPhase = "pending"
	PhaseOriginalAdjusted SplitPhase = "original_adjusted"
	PhaseCompleted        SplitPhase = "completed"
)

// WriteError reports which phase of the split execution failed, and whether
// the original invoice had already been adjusted by the time it did.
type WriteError struct {
	Phase            SplitPhase // phase being attempted when the write failed
	OriginalAdjusted bool
	Err              error
}

func (e *WriteError) Error() string {
	if e.OriginalAdjusted {
		return fmt.Sprintf("split write failed after original invoice was adjusted (%s): %v - manual cleanup required", e.Phase, e.Err)
	}
	return fmt.Sprintf("split write failed (%s): %v", e.Phase, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// =============================================================================
// SPLITTER
// =============================================================================

// Splitter carves an invoice spanning an occupier change into a
// previous-occupier portion, a void gap, and a new-occupier invoice.
type Splitter struct {
	Invoices ledger.InvoiceStore
	Logger   *log.Logger
}

func NewSplitter(invoices ledger.InvoiceStore) *Splitter {
	return &Splitter{Invoices: invoices, Logger: log.Default()}
}

// SplitPlan is the outcome of the pure calculation stage: everything the
// operator reviews before deciding to execute. Discarding a plan has no
// effect on the platform.
type SplitPlan struct {
	Invoice    ledger.Invoice
	Schedule   billing.BillingSchedule
	Resolution billing.PeriodResolution
	Allocation billing.SplitAllocation
}

// PreviewSplit resolves the billing period from the invoice date and the
// previous occupier's account number, then computes the three-way pro-rata
// allocation. Pure apart from the invoice read; nothing is written.
func (s *Splitter) PreviewSplit(ctx context.Context, invoiceID, accountNumber string, vacateDate, moveInDate billing.Date) (*SplitPlan, error) {
	account, err := billing.ParseAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	schedule, ok := billing.LookupSchedule(account.ContactCode)
	if !ok {
		return nil, &billing.UnknownContactCodeError{Code: account.ContactCode}
	}
	if !schedule.Splittable() {
		return nil, &billing.UnsupportedFrequencyError{Frequency: schedule.Frequency}
	}

	invoice, err := s.Invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}

	resolution, err := billing.ResolvePeriod(invoice.Date, schedule)
	if err != nil {
		return nil, err
	}
	if resolution.Fallback {
		// A fallback resolution means the anchor search failed; the period
		// is a guess and the operator should know before executing.
		s.logf("WARNING: fallback period resolution for invoice %s (%s, issued %s): period %s",
			invoice.Number, account.ContactCode, invoice.Date, resolution.Period)
	}

	allocation, err := billing.CalculateSplit(resolution.Period, vacateDate, moveInDate, invoice.Total)
	if err != nil {
		return nil, err
	}

	return &SplitPlan{
		Invoice:    *invoice,
		Schedule:   schedule,
		Resolution: resolution,
		Allocation: allocation,
	}, nil
}

// SplitResult reports an execution attempt. Phase says how far it got;
// NewInvoice is set only when phase 2 succeeded.
type SplitResult struct {
	Phase          SplitPhase
	PreviousAmount billing.Money
	NewAmount      billing.Money
	NewInvoice     *ledger.Invoice
}

// ExecuteSplit performs the two external writes:
//
//	phase 1: scale the original invoice's line items down to the
//	         previous-occupier amount (whole-set replacement)
//	phase 2: create a new invoice for the new occupier with the same line
//	         structure scaled to the new-occupier amount
//
// The phases are not transactional. A phase-2 failure leaves the original
// invoice already reduced; the returned WriteError says so explicitly.
func (s *Splitter) ExecuteSplit(ctx context.Context, plan *SplitPlan, newContactID string) (*SplitResult, error) {
	alloc := plan.Allocation
	result := &SplitResult{
		Phase:          PhasePending,
		PreviousAmount: alloc.PreviousOccupier.Amount,
		NewAmount:      alloc.NewOccupier.Amount,
	}

	// Phase 1: adjust the original invoice down to the previous occupier's
	// portion.
	adjusted, err := ScaleLineItems(plan.Invoice.LineItems, plan.Invoice.Total, alloc.PreviousOccupier.Amount, alloc.PreviousPeriodLabel())
	if err != nil {
		return result, &WriteError{Phase: PhaseOriginalAdjusted, Err: err}
	}
	s.logf("adjusting invoice %s from %s to %s", plan.Invoice.Number, plan.Invoice.Total, alloc.PreviousOccupier.Amount)
	if err := s.Invoices.UpdateLineItems(ctx, plan.Invoice.ID, adjusted); err != nil {
		return result, &WriteError{Phase: PhaseOriginalAdjusted, Err: err}
	}
	result.Phase = PhaseOriginalAdjusted

	// Phase 2: create the new occupier's invoice from the original's
	// structure.
	newItems, err := ScaleLineItems(plan.Invoice.LineItems, plan.Invoice.Total, alloc.NewOccupier.Amount, alloc.NewPeriodLabel())
	if err != nil {
		return result, &WriteError{Phase: PhaseCompleted, OriginalAdjusted: true, Err: err}
	}
	newInvoice := ledger.Invoice{
		ContactID:       newContactID,
		Type:            plan.Invoice.Type,
		Status:          ledger.InvoiceStatusAuthorised,
		Date:            plan.Invoice.Date,
		DueDate:         plan.Invoice.DueDate,
		LineAmountTypes: plan.Invoice.LineAmountTypes,
		CurrencyCode:    plan.Invoice.CurrencyCode,
		Reference:       plan.Invoice.Reference,
		BrandingThemeID: plan.Invoice.BrandingThemeID,
		Total:           alloc.NewOccupier.Amount,
		LineItems:       newItems,
	}
	s.logf("creating new occupier invoice for %s: %s", newContactID, alloc.NewOccupier.Amount)
	created, err := s.Invoices.CreateInvoice(ctx, newInvoice)
	if err != nil {
		return result, &WriteError{Phase: PhaseCompleted, OriginalAdjusted: true, Err: err}
	}

	result.Phase = PhaseCompleted
	result.NewInvoice = created
	return result, nil
}

// FindInvoiceToSplit selects the previous occupier's most recent unpaid
// invoice, the document the split operates on. Returns ErrNoUnpaidInvoice
// when the contact has nothing outstanding.
func (s *Splitter) FindInvoiceToSplit(ctx context.Context, contactID string) (*ledger.Invoice, error) {
	invoice, err := s.Invoices.FindLatestUnpaidInvoice(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrNoUnpaidInvoice
	}
	return invoice, nil
}

// ErrNoUnpaidInvoice is returned when the previous occupier has no invoice
// with an outstanding amount, so there is nothing to split.
var ErrNoUnpaidInvoice = errors.New("no unpaid invoice found for contact")

func (s *Splitter) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
