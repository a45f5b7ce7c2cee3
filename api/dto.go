/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Accounts:
    AccountDTO, ScheduleDTO, ContactCodeDTO, ProposalDTO

  Splits:
    SplitPreviewRequest, SplitPlanDTO, ShareDTO, ExecuteSplitRequest,
    SplitResultDTO

  Contacts / invoices:
    ContactDTO, InvoiceDTO, LineItemDTO

  Occupier changes:
    OccupierChangeRequest, OccupierChangeDTO, RetirementDTO,
    TemplateReassignmentDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route wiring
*/
package api

import (
	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
	"github.com/brae/tenancy-engine/tenancy"
)

// =============================================================================
// ACCOUNTS AND SCHEDULES
// =============================================================================

// AccountDTO is a parsed account number.
type AccountDTO struct {
	AccountNumber string `json:"account_number"`
	PropertyBase  string `json:"property_base"`
	Sequence      int    `json:"sequence"`
	ContactCode   string `json:"contact_code"`
	BaseAccount   string `json:"base_account"`
}

// ScheduleDTO is the billing schedule behind a contact code.
type ScheduleDTO struct {
	Frequency  string `json:"frequency"`
	StartDay   int    `json:"start_day,omitempty"`
	PeriodDays int    `json:"period_days,omitempty"`
	Splittable bool   `json:"splittable"`
}

// ContactCodeDTO is one entry of the contact-code table.
type ContactCodeDTO struct {
	Code        string      `json:"code"`
	Description string      `json:"description"`
	Schedule    ScheduleDTO `json:"schedule"`
}

// PeriodDTO is a resolved billing period.
type PeriodDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	TotalDays int    `json:"total_days"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// ProposeAccountRequest asks for the successor account number of an
// outgoing account.
type ProposeAccountRequest struct {
	AccountNumber string `json:"account_number"`
	ContactCode   string `json:"contact_code"`
}

// ProposalDTO reports whether a proposed account number is free.
type ProposalDTO struct {
	AccountNumber string      `json:"account_number"`
	Available     bool        `json:"available"`
	Duplicate     *ContactDTO `json:"duplicate,omitempty"`
	NextAvailable string      `json:"next_available,omitempty"`
}

// =============================================================================
// SPLITS
// =============================================================================

// SplitPreviewRequest asks for the three-way allocation of an invoice.
type SplitPreviewRequest struct {
	InvoiceID     string `json:"invoice_id"`
	AccountNumber string `json:"account_number"`
	VacateDate    string `json:"vacate_date"`
	MoveInDate    string `json:"move_in_date"`
}

// ShareDTO is one occupier's share of a split period.
type ShareDTO struct {
	Days   int    `json:"days"`
	Amount string `json:"amount"`
}

// SplitPlanDTO is the reviewed allocation before execution.
type SplitPlanDTO struct {
	InvoiceID        string    `json:"invoice_id"`
	InvoiceNumber    string    `json:"invoice_number"`
	InvoiceTotal     string    `json:"invoice_total"`
	Period           PeriodDTO `json:"period"`
	DailyRate        string    `json:"daily_rate"`
	PreviousOccupier ShareDTO  `json:"previous_occupier"`
	VoidPeriod       ShareDTO  `json:"void_period"`
	NewOccupier      ShareDTO  `json:"new_occupier"`
}

// ExecuteSplitRequest executes a previously previewed split.
type ExecuteSplitRequest struct {
	SplitPreviewRequest
	NewContactID string `json:"new_contact_id"`
}

// SplitResultDTO reports how far an execution got.
type SplitResultDTO struct {
	Phase          string      `json:"phase"`
	PreviousAmount string      `json:"previous_amount"`
	NewAmount      string      `json:"new_amount"`
	NewInvoice     *InvoiceDTO `json:"new_invoice,omitempty"`
}

// =============================================================================
// CONTACTS AND INVOICES
// =============================================================================

// ContactDTO represents a contact in API responses.
type ContactDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Status        string `json:"status"`
}

// LineItemDTO represents an invoice line.
type LineItemDTO struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitAmount  string `json:"unit_amount"`
	LineAmount  string `json:"line_amount"`
	AccountCode string `json:"account_code,omitempty"`
	TaxType     string `json:"tax_type,omitempty"`
	ItemCode    string `json:"item_code,omitempty"`
}

// InvoiceDTO represents an invoice in API responses.
type InvoiceDTO struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	ContactID string        `json:"contact_id"`
	Status    string        `json:"status"`
	Date      string        `json:"date"`
	DueDate   string        `json:"due_date,omitempty"`
	Total     string        `json:"total"`
	AmountDue string        `json:"amount_due"`
	LineItems []LineItemDTO `json:"line_items"`
}

// =============================================================================
// OCCUPIER CHANGES
// =============================================================================

// NewOccupierRequest is the incoming occupier's detail.
type NewOccupierRequest struct {
	ContactCode string `json:"contact_code"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// OccupierChangeRequest runs the full occupier-change workflow.
type OccupierChangeRequest struct {
	AccountNumber string             `json:"account_number"`
	VacateDate    string             `json:"vacate_date"`
	MoveInDate    string             `json:"move_in_date"`
	NewOccupier   NewOccupierRequest `json:"new_occupier"`

	// SplitInvoice runs the pro-rata split of the latest unpaid invoice.
	// Off by default: not every changeover straddles a billed period.
	SplitInvoice bool `json:"split_invoice,omitempty"`
}

// ReassignmentDTO reports the per-invoice reassignment outcome.
type ReassignmentDTO struct {
	Reassigned []string          `json:"reassigned"`
	Failed     map[string]string `json:"failed,omitempty"`
}

// TemplateReassignmentDTO reports a repeating-template move.
type TemplateReassignmentDTO struct {
	NewTemplateID      string `json:"new_template_id"`
	OldDeleted         bool   `json:"old_deleted"`
	LeftoverTemplateID string `json:"leftover_template_id,omitempty"`
}

// RetirementDTO reports the outgoing contact's retirement.
type RetirementDTO struct {
	Outstanding      string   `json:"outstanding"`
	HasBalance       bool     `json:"has_balance"`
	GroupsRemoved    []string `json:"groups_removed,omitempty"`
	AddedToPrevious  bool     `json:"added_to_previous"`
	AccountRewritten string   `json:"account_rewritten,omitempty"`
	Status           string   `json:"status,omitempty"`
	StepFailures     []string `json:"step_failures,omitempty"`
}

// OccupierChangeDTO is the full workflow outcome.
type OccupierChangeDTO struct {
	Outgoing   *ContactDTO              `json:"outgoing"`
	Successor  *ContactDTO              `json:"successor"`
	Invoices   *ReassignmentDTO         `json:"invoices,omitempty"`
	Template   *TemplateReassignmentDTO `json:"template,omitempty"`
	SplitPlan  *SplitPlanDTO            `json:"split_plan,omitempty"`
	Split      *SplitResultDTO          `json:"split,omitempty"`
	Retirement *RetirementDTO           `json:"retirement,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toContactDTO(c *ledger.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:            c.ID,
		Name:          c.Name,
		AccountNumber: c.AccountNumber,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.EmailAddress,
		Status:        string(c.Status),
	}
}

func toInvoiceDTO(inv *ledger.Invoice) *InvoiceDTO {
	if inv == nil {
		return nil
	}
	dto := &InvoiceDTO{
		ID:        inv.ID,
		Number:    inv.Number,
		ContactID: inv.ContactID,
		Status:    string(inv.Status),
		Date:      inv.Date.String(),
		Total:     inv.Total.String(),
		AmountDue: inv.AmountDue.String(),
		LineItems: make([]LineItemDTO, 0, len(inv.LineItems)),
	}
	if !inv.DueDate.IsZero() {
		dto.DueDate = inv.DueDate.String()
	}
	for _, item := range inv.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitAmount:  item.UnitAmount.String(),
			LineAmount:  item.LineAmount.String(),
			AccountCode: item.AccountCode,
			TaxType:     item.TaxType,
			ItemCode:    item.ItemCode,
		})
	}
	return dto
}

func toScheduleDTO(s billing.BillingSchedule) ScheduleDTO {
	return ScheduleDTO{
		Frequency:  string(s.Frequency),
		StartDay:   s.StartDay,
		PeriodDays: s.PeriodDays,
		Splittable: s.Splittable(),
	}
}

func toPeriodDTO(res billing.PeriodResolution) PeriodDTO {
	return PeriodDTO{
		Start:     res.Period.Start.String(),
		End:       res.Period.End.String(),
		TotalDays: res.Period.TotalDays(),
		Fallback:  res.Fallback,
	}
}

func toShareDTO(s billing.OccupierShare) ShareDTO {
	return ShareDTO{Days: s.Days, Amount: s.Amount.String()}
}

func toSplitPlanDTO(plan *tenancy.SplitPlan) *SplitPlanDTO {
	if plan == nil {
		return nil
	}
	return &SplitPlanDTO{
		InvoiceID:        plan.Invoice.ID,
		InvoiceNumber:    plan.Invoice.Number,
		InvoiceTotal:     plan.Invoice.Total.String(),
		Period:           toPeriodDTO(plan.Resolution),
		DailyRate:        plan.Allocation.DailyRate.StringFixed(4),
		PreviousOccupier: toShareDTO(plan.Allocation.PreviousOccupier),
		VoidPeriod:       toShareDTO(plan.Allocation.VoidPeriod),
		NewOccupier:      toShareDTO(plan.Allocation.NewOccupier),
	}
}

func toSplitResultDTO(res *tenancy.SplitResult) *SplitResultDTO {
	if res == nil {
		return nil
	}
	return &SplitResultDTO{
		Phase:          string(res.Phase),
		PreviousAmount: res.PreviousAmount.String(),
		NewAmount:      res.NewAmount.String(),
		NewInvoice:     toInvoiceDTO(res.NewInvoice),
	}
}

func toReassignmentDTO(out *tenancy.ReassignmentOutcome) *ReassignmentDTO {
	if out == nil {
		return nil
	}
	dto := &ReassignmentDTO{Reassigned: out.Reassigned}
	if len(out.Failed) > 0 {
		dto.Failed = make(map[string]string, len(out.Failed))
		for id, err := range out.Failed {
			dto.Failed[id] = err.Error()
		}
	}
	return dto
}

func toTemplateDTO(t *tenancy.TemplateReassignment) *TemplateReassignmentDTO {
	if t == nil {
		return nil
	}
	dto := &TemplateReassignmentDTO{
		OldDeleted:         t.OldDeleted,
		LeftoverTemplateID: t.LeftoverTemplateID,
	}
	if t.NewTemplate != nil {
		dto.NewTemplateID = t.NewTemplate.ID
	}
	return dto
}

func toRetirementDTO(r *tenancy.RetirementReport) *RetirementDTO {
	if r == nil {
		return nil
	}
	return &RetirementDTO{
		Outstanding:      r.Outstanding.String(),
		HasBalance:       r.HasBalance,
		GroupsRemoved:    r.GroupsRemoved,
		AddedToPrevious:  r.AddedToPrevious,
		AccountRewritten: r.AccountRewritten,
		Status:           string(r.Status),
		StepFailures:     r.StepFailures,
	}
}
