/*
workflow.go - Occupier-change workflow context

PURPOSE:
  The interactive front end drives an occupier change in steps, with the
  operator reviewing between them. Rather than ambient state, everything the
  steps share lives in an explicit OccupierChange value threaded through the
  calls, so any step can be inspected, retried, or abandoned.

STEP ORDER:
  1. Locate the outgoing contact by account number
  2. Create the successor contact
  3. Reassign post-move-in invoices to the successor
  4. Reassign the repeating invoice template
  5. (Optional) split the straddling invoice pro-rata
  6. Retire the outgoing contact

  Steps 3-5 are independent external writes; a failure in one does not undo
  the others. The workflow records what happened and the operator decides.
*/
package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// OccupierChange carries the state of one occupier transition. Values are
// filled in as steps complete; zero fields mean the step has not run.
type OccupierChange struct {
	// Inputs
	OutgoingAccountNumber string
	VacateDate            billing.Date
	MoveInDate            billing.Date
	Incoming              NewOccupier

	// Step results
	Outgoing   *ledger.Contact
	Successor  *ledger.Contact
	Invoices   *ReassignmentOutcome
	Template   *TemplateReassignment
	SplitPlan  *SplitPlan
	Split      *SplitResult
	Retirement *RetirementReport
}

// Workflow wires the step executors over one ledger store.
type Workflow struct {
	Store      ledger.Store
	Splitter   *Splitter
	ContactMgr *ContactManager
	Reassign   *Reassigner
	Retirer    *Retirer
}

func NewWorkflow(store ledger.Store) *Workflow {
	return &Workflow{
		Store:      store,
		Splitter:   NewSplitter(store),
		ContactMgr: NewContactManager(store, store),
		Reassign:   NewReassigner(store),
		Retirer:    NewRetirer(store, store),
	}
}

// Begin locates the outgoing contact and validates the inputs enough for
// the operator to proceed.
func (w *Workflow) Begin(ctx context.Context, change *OccupierChange) error {
	if _, err := billing.ParseAccountNumber(change.OutgoingAccountNumber); err != nil {
		return err
	}
	contact, err := w.Store.FindContactByAccountNumber(ctx, change.OutgoingAccountNumber)
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("account %s: %w", change.OutgoingAccountNumber, ledger.ErrContactNotFound)
	}
	change.Outgoing = contact
	return nil
}

// CreateSuccessor runs step 2.
func (w *Workflow) CreateSuccessor(ctx context.Context, change *OccupierChange) error {
	if change.Outgoing == nil {
		return fmt.Errorf("workflow: outgoing contact not resolved")
	}
	successor, err := w.ContactMgr.CreateSuccessor(ctx, change.Outgoing, change.Incoming)
	if err != nil {
		return err
	}
	change.Successor = successor
	return nil
}

// ReassignInvoices runs step 3 over the invoices the operator selected.
func (w *Workflow) ReassignInvoices(ctx context.Context, change *OccupierChange, invoiceIDs []string) error {
	if change.Successor == nil {
		return fmt.Errorf("workflow: successor contact not created")
	}
	outcome := w.Reassign.ReassignInvoices(ctx, invoiceIDs, change.Successor.ID)
	change.Invoices = &outcome
	return nil
}

// ReassignTemplate runs step 4. A missing template is recorded, not fatal:
// not every property bills through a repeating template.
func (w *Workflow) ReassignTemplate(ctx context.Context, change *OccupierChange) error {
	if change.Successor == nil {
		return fmt.Errorf("workflow: successor contact not created")
	}
	result, err := w.Reassign.ReassignTemplate(ctx, change.Outgoing.ID, change.Successor.ID)
	if errors.Is(err, ErrNoTemplate) {
		return nil
	}
	if err != nil {
		return err
	}
	change.Template = result
	return nil
}

// PreviewSplit runs the calculation half of step 5 against the outgoing
// contact's latest unpaid invoice. The plan is held on the change for the
// operator to review; abandoning it discards the allocation with no writes.
func (w *Workflow) PreviewSplit(ctx context.Context, change *OccupierChange) error {
	if change.Outgoing == nil {
		return fmt.Errorf("workflow: outgoing contact not resolved")
	}
	invoice, err := w.Splitter.FindInvoiceToSplit(ctx, change.Outgoing.ID)
	if err != nil {
		return err
	}
	plan, err := w.Splitter.PreviewSplit(ctx, invoice.ID, change.Outgoing.AccountNumber, change.VacateDate, change.MoveInDate)
	if err != nil {
		return err
	}
	change.SplitPlan = plan
	return nil
}

// ExecuteSplit runs the mutation half of step 5.
func (w *Workflow) ExecuteSplit(ctx context.Context, change *OccupierChange) error {
	if change.SplitPlan == nil {
		return fmt.Errorf("workflow: no split plan to execute")
	}
	if change.Successor == nil {
		return fmt.Errorf("workflow: successor contact not created")
	}
	result, err := w.Splitter.ExecuteSplit(ctx, change.SplitPlan, change.Successor.ID)
	change.Split = result
	return err
}

// RetireOutgoing runs step 6.
func (w *Workflow) RetireOutgoing(ctx context.Context, change *OccupierChange) error {
	if change.Outgoing == nil {
		return fmt.Errorf("workflow: outgoing contact not resolved")
	}
	report, err := w.Retirer.Retire(ctx, change.Outgoing.ID)
	if err != nil {
		return err
	}
	change.Retirement = report
	return nil
}
