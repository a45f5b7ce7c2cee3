package tenancy

import (
	"context"
	"fmt"
	"log"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// PREVIOUS-CONTACT RETIREMENT
// =============================================================================

// Retirer moves an outgoing occupier's contact into the archival state once
// their invoices have been reassigned or split: out of the property groups,
// into the previous-accounts group, account suffix rewritten to /P, and the
// contact kept active only while money is still owed.
type Retirer struct {
	Contacts ledger.ContactStore
	Groups   ledger.ContactGroupStore
	Logger   *log.Logger
}

func NewRetirer(contacts ledger.ContactStore, groups ledger.ContactGroupStore) *Retirer {
	return &Retirer{Contacts: contacts, Groups: groups, Logger: log.Default()}
}

// RetirementReport records what each step of the retirement did. Steps are
// independent writes; a partial failure is reported, not rolled back.
type RetirementReport struct {
	Outstanding      billing.Money
	HasBalance       bool
	GroupsRemoved    []string
	AddedToPrevious  bool
	AccountRewritten string // the new /P account number
	Status           ledger.ContactStatus
	StepFailures     []string
}

// Succeeded reports whether every step completed.
func (r *RetirementReport) Succeeded() bool { return len(r.StepFailures) == 0 }

// Retire runs the previous-contact workflow:
//
//  1. read the outstanding balance (drives the final status)
//  2. remove the contact from all current groups
//  3. add it to the "+ Previous accounts still due" group
//  4. rewrite the account suffix to /P; keep ACTIVE when money is owed,
//     otherwise set INACTIVE
//
// The previous-accounts group is required: without it the workflow stops
// before touching the contact.
func (rt *Retirer) Retire(ctx context.Context, contactID string) (*RetirementReport, error) {
	report := &RetirementReport{}

	contact, err := rt.Contacts.GetContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("load contact %s: %w", contactID, err)
	}

	outstanding, err := rt.Contacts.OutstandingBalance(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("read balance for %s: %w", contactID, err)
	}
	report.Outstanding = outstanding
	report.HasBalance = !outstanding.IsZero()

	previousGroup, err := rt.Groups.FindGroupByName(ctx, ledger.PreviousAccountsGroupName)
	if err != nil {
		return nil, fmt.Errorf("find %q group: %w", ledger.PreviousAccountsGroupName, err)
	}

	groups, err := rt.Groups.ListGroupsForContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("list groups for %s: %w", contactID, err)
	}
	for _, g := range groups {
		if err := rt.Groups.RemoveContactFromGroup(ctx, contactID, g.ID); err != nil {
			rt.logf("remove %s from group %q: %v", contactID, g.Name, err)
			report.StepFailures = append(report.StepFailures, fmt.Sprintf("remove from group %q: %v", g.Name, err))
			continue
		}
		report.GroupsRemoved = append(report.GroupsRemoved, g.Name)
	}

	if err := rt.Groups.AddContactToGroup(ctx, contactID, previousGroup.ID); err != nil {
		rt.logf("add %s to previous-accounts group: %v", contactID, err)
		report.StepFailures = append(report.StepFailures, fmt.Sprintf("add to previous-accounts group: %v", err))
	} else {
		report.AddedToPrevious = true
	}

	account, err := billing.ParseAccountNumber(contact.AccountNumber)
	if err != nil {
		return report, err
	}
	retired := account.WithContactCode(billing.CodePreviousAccount)

	status := ledger.ContactStatusInactive
	if report.HasBalance {
		// Still owes money: keep the contact active so the debt stays
		// visible and chaseable.
		status = ledger.ContactStatusActive
	}

	update := ledger.Contact{
		ID:            contactID,
		AccountNumber: retired.String(),
		Status:        status,
	}
	if err := rt.Contacts.UpdateContact(ctx, update); err != nil {
		report.StepFailures = append(report.StepFailures, fmt.Sprintf("update contact: %v", err))
		return report, nil
	}
	report.AccountRewritten = retired.String()
	report.Status = status

	rt.logf("retired contact %s: account %s, status %s, outstanding %s",
		contactID, retired, status, outstanding)
	return report, nil
}

func (rt *Retirer) logf(format string, args ...any) {
	if rt.Logger != nil {
		rt.Logger.Printf(format, args...)
	}
}
