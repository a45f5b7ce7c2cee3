package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// SUCCESSOR CONTACT CREATION
// =============================================================================

// ContactManager creates successor contacts when an occupier changes: the
// new account number is the outgoing one with its sequence digit advanced
// and the new occupier's contact code applied.
type ContactManager struct {
	Contacts ledger.ContactStore
	Groups   ledger.ContactGroupStore
}

func NewContactManager(contacts ledger.ContactStore, groups ledger.ContactGroupStore) *ContactManager {
	return &ContactManager{Contacts: contacts, Groups: groups}
}

// NewOccupier is the operator-supplied detail for the incoming occupier.
// FirstName is required; the rest is optional.
type NewOccupier struct {
	ContactCode billing.ContactCode
	FirstName   string
	LastName    string
	Email       string
}

var (
	// ErrFirstNameRequired is returned when the new occupier has no first name.
	ErrFirstNameRequired = errors.New("first name is required")

	// ErrNoAvailableSequence is returned when every probed sequence slot at
	// the property is already taken.
	ErrNoAvailableSequence = errors.New("no available account sequence at property")
)

// maxSequenceProbes bounds the search for a free sequence slot. The sequence
// is a single digit, so the grammar itself caps this well below the bound.
const maxSequenceProbes = 10

// ProposeAccountNumber computes the successor account number: outgoing
// sequence + 1 with the new occupier's contact code. Validation of whether
// the proposal collides with an existing contact is a separate step
// (CheckProposal), so the operator can be offered choices.
func ProposeAccountNumber(outgoingAccountNumber string, code billing.ContactCode) (billing.AccountNumber, error) {
	if !billing.ValidContactCode(code) {
		return billing.AccountNumber{}, &billing.UnknownContactCodeError{Code: code}
	}
	outgoing, err := billing.ParseAccountNumber(outgoingAccountNumber)
	if err != nil {
		return billing.AccountNumber{}, err
	}
	next, err := outgoing.IncrementSequence()
	if err != nil {
		return billing.AccountNumber{}, err
	}
	return next.WithContactCode(code), nil
}

// Proposal reports whether a proposed account number is free, and when it is
// not, which contact holds it and what the next free slot would be.
type Proposal struct {
	AccountNumber billing.AccountNumber
	Available     bool
	Duplicate     *ledger.Contact        // set when the proposed number is taken
	NextAvailable *billing.AccountNumber // next free slot, nil when none before overflow
}

// CheckProposal checks the proposed account number against the platform and,
// when taken, probes forward for the next free sequence slot.
func (cm *ContactManager) CheckProposal(ctx context.Context, proposed billing.AccountNumber) (*Proposal, error) {
	existing, err := cm.Contacts.FindContactByAccountNumber(ctx, proposed.String())
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &Proposal{AccountNumber: proposed, Available: true}, nil
	}

	proposal := &Proposal{AccountNumber: proposed, Duplicate: existing}
	candidate := proposed
	for i := 0; i < maxSequenceProbes; i++ {
		next, err := candidate.IncrementSequence()
		if err != nil {
			// Sequence digit exhausted: no free slot before overflow.
			return proposal, nil
		}
		candidate = next
		taken, err := cm.Contacts.FindContactByAccountNumber(ctx, candidate.String())
		if err != nil {
			return nil, err
		}
		if taken == nil {
			slot := candidate
			proposal.NextAvailable = &slot
			return proposal, nil
		}
	}
	return proposal, nil
}

// CreateSuccessor creates the new occupier's contact from the outgoing one:
// same property, next account number, name rebuilt around the new base
// account, address and billing defaults copied. The created contact is added
// to the property's contact group (matched by the 6-character name prefix)
// when one exists.
func (cm *ContactManager) CreateSuccessor(ctx context.Context, outgoing *ledger.Contact, occupier NewOccupier) (*ledger.Contact, error) {
	if strings.TrimSpace(occupier.FirstName) == "" {
		return nil, ErrFirstNameRequired
	}

	account, err := ProposeAccountNumber(outgoing.AccountNumber, occupier.ContactCode)
	if err != nil {
		return nil, err
	}

	flat, building := splitContactName(outgoing.Name)
	successor := ledger.Contact{
		Name:          billing.FormatContactName(account.BaseAccount(), flat, building),
		AccountNumber: account.String(),
		FirstName:     occupier.FirstName,
		LastName:      occupier.LastName,
		EmailAddress:  occupier.Email,
		Status:        ledger.ContactStatusActive,

		DefaultCurrency:  outgoing.DefaultCurrency,
		SalesAccountCode: outgoing.SalesAccountCode,
		PaymentTerms:     outgoing.PaymentTerms,
		BrandingThemeID:  outgoing.BrandingThemeID,
		Addresses:        append([]ledger.Address(nil), outgoing.Addresses...),
		Phones:           append([]ledger.Phone(nil), outgoing.Phones...),
	}

	created, err := cm.Contacts.CreateContact(ctx, successor)
	if err != nil {
		return nil, fmt.Errorf("create successor contact %s: %w", successor.AccountNumber, err)
	}

	// Property group membership is best-effort: a missing group is not a
	// reason to fail the creation.
	if len(created.Name) >= 6 {
		group, err := cm.Groups.FindGroupByPrefix(ctx, created.Name[:6])
		if err == nil && group != nil {
			_ = cm.Groups.AddContactToGroup(ctx, created.ID, group.ID)
		}
	}

	return created, nil
}

// splitContactName takes "ACCOUNT - (Flat X) Street" apart into flat and
// building parts. Names that do not follow the convention yield an empty
// flat and the whole trailing text as the building.
func splitContactName(name string) (flat, building string) {
	_, after, found := strings.Cut(name, " - ")
	if !found {
		return "", "Address Unknown"
	}
	if strings.HasPrefix(after, "(") {
		if end := strings.Index(after, ")"); end > 0 {
			return after[1:end], strings.TrimSpace(after[end+1:])
		}
	}
	return "", after
}
