/*
handlers.go - HTTP API handlers for the tenancy billing engine

PURPOSE:
  Exposes the billing core and occupier-change workflows via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/contact-codes             List the contact-code table
    GET    /api/accounts/{number}         Parse an account number
    GET    /api/accounts/{number}/period  Resolve a billing period
    POST   /api/accounts/propose          Propose a successor account number

  Contacts:
    GET    /api/contacts/{id}                    Get contact
    GET    /api/contacts/{id}/invoices           Invoices from a date
    GET    /api/contacts/{id}/invoices/unpaid    Latest unpaid invoice
    POST   /api/contacts/{id}/retire             Retire (previous-contact flow)

  Splits:
    POST   /api/splits/preview            Calculate the three-way allocation
    POST   /api/splits/execute            Execute (adjust + create)

  Occupier changes:
    POST   /api/occupier-changes          Run the full workflow

  Demo:
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Seed a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unsplittable schedules
  - 404: Contact/invoice/group not found
  - 409: Duplicate account number
  - 500: Internal errors, partial write failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
	"github.com/brae/tenancy-engine/tenancy"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    ledger.Store
	Workflow *tenancy.Workflow

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over the given store.
func NewHandler(store ledger.Store) *Handler {
	return &Handler{
		Store:    store,
		Workflow: tenancy.NewWorkflow(store),
	}
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListContactCodes returns the contact-code table with each code's schedule.
// GET /api/contact-codes
func (h *Handler) ListContactCodes(w http.ResponseWriter, r *http.Request) {
	table := billing.AllContactCodes()
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	dtos := make([]ContactCodeDTO, 0, len(codes))
	for _, code := range codes {
		schedule, _ := billing.LookupSchedule(billing.ContactCode(code))
		dtos = append(dtos, ContactCodeDTO{
			Code:        code,
			Description: table[billing.ContactCode(code)],
			Schedule:    toScheduleDTO(schedule),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ParseAccount parses an account number into its components.
// GET /api/accounts/{number}
func (h *Handler) ParseAccount(w http.ResponseWriter, r *http.Request) {
	number := urlParam(r, "number")
	account, err := billing.ParseAccountNumber(number)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account number", err)
		return
	}
	writeJSON(w, http.StatusOK, AccountDTO{
		AccountNumber: account.String(),
		PropertyBase:  account.PropertyBase,
		Sequence:      account.Sequence,
		ContactCode:   string(account.ContactCode),
		BaseAccount:   account.BaseAccount(),
	})
}

// ResolvePeriod resolves the billing period an invoice date falls into for
// the account's schedule.
// GET /api/accounts/{number}/period?date=2025-02-10
func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	number := urlParam(r, "number")
	account, err := billing.ParseAccountNumber(number)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account number", err)
		return
	}

	date, err := billing.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	resolution, err := billing.ResolvePeriodForCode(date, account.ContactCode)
	if err != nil {
		writeError(w, statusForError(err), "Cannot resolve period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(resolution))
}

// ProposeAccount computes the successor account number for an outgoing
// account and checks it for collisions.
// POST /api/accounts/propose
func (h *Handler) ProposeAccount(w http.ResponseWriter, r *http.Request) {
	var req ProposeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	proposed, err := tenancy.ProposeAccountNumber(req.AccountNumber, billing.ContactCode(req.ContactCode))
	if err != nil {
		writeError(w, statusForError(err), "Cannot propose account number", err)
		return
	}

	proposal, err := h.Workflow.ContactMgr.CheckProposal(r.Context(), proposed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Proposal check failed", err)
		return
	}

	dto := ProposalDTO{
		AccountNumber: proposal.AccountNumber.String(),
		Available:     proposal.Available,
		Duplicate:     toContactDTO(proposal.Duplicate),
	}
	if proposal.NextAvailable != nil {
		dto.NextAvailable = proposal.NextAvailable.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CONTACT ENDPOINTS
// =============================================================================

// GetContact returns a contact by ID, or by account number when the ID does
// not match.
// GET /api/contacts/{id}
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	contact, err := h.Store.GetContact(r.Context(), id)
	if errors.Is(err, ledger.ErrContactNotFound) {
		contact, err = h.Store.FindContactByAccountNumber(r.Context(), id)
		if err == nil && contact == nil {
			writeError(w, http.StatusNotFound, "Contact not found", ledger.ErrContactNotFound)
			return
		}
	}
	if err != nil {
		writeError(w, statusForError(err), "Failed to get contact", err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTO(contact))
}

// ListInvoices returns a contact's invoices issued on or after a date,
// newest first. These are the reassignment candidates after a move-in.
// GET /api/contacts/{id}/invoices?from=2025-02-14
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	from, err := billing.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", err)
		return
	}

	invoices, err := h.Workflow.Reassign.FindReassignableInvoices(r.Context(), id, from)
	if err != nil {
		writeError(w, statusForError(err), "Failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		dtos = append(dtos, *toInvoiceDTO(&invoices[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUnpaidInvoice returns the contact's latest invoice with an outstanding
// amount, the document a split would operate on.
// GET /api/contacts/{id}/invoices/unpaid
func (h *Handler) GetUnpaidInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	invoice, err := h.Workflow.Splitter.FindInvoiceToSplit(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "No unpaid invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(invoice))
}

// RetireContact runs the previous-contact retirement workflow.
// POST /api/contacts/{id}/retire
func (h *Handler) RetireContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.Workflow.Retirer.Retire(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "Retirement failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRetirementDTO(report))
}

// =============================================================================
// SPLIT ENDPOINTS
// =============================================================================

// PreviewSplit calculates the three-way allocation without writing anything.
// POST /api/splits/preview
func (h *Handler) PreviewSplit(w http.ResponseWriter, r *http.Request) {
	var req SplitPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, err := h.previewSplit(r, req)
	if err != nil {
		writeError(w, statusForError(err), "Split preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitPlanDTO(plan))
}

// ExecuteSplit performs the two-phase split: adjust the original invoice,
// create the new occupier's invoice.
// POST /api/splits/execute
func (h *Handler) ExecuteSplit(w http.ResponseWriter, r *http.Request) {
	var req ExecuteSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.NewContactID == "" {
		writeError(w, http.StatusBadRequest, "new_contact_id is required", nil)
		return
	}

	plan, err := h.previewSplit(r, req.SplitPreviewRequest)
	if err != nil {
		writeError(w, statusForError(err), "Split preview failed", err)
		return
	}

	result, err := h.Workflow.Splitter.ExecuteSplit(r.Context(), plan, req.NewContactID)
	if err != nil {
		// The partial state is part of the response: the client must know
		// whether the original invoice was already adjusted.
		writeJSON(w, http.StatusInternalServerError, struct {
			ErrorResponse
			Result *SplitResultDTO `json:"result"`
		}{
			ErrorResponse: ErrorResponse{Error: "Split execution failed", Details: err.Error()},
			Result:        toSplitResultDTO(result),
		})
		return
	}
	writeJSON(w, http.StatusOK, toSplitResultDTO(result))
}

func (h *Handler) previewSplit(r *http.Request, req SplitPreviewRequest) (*tenancy.SplitPlan, error) {
	vacate, err := billing.ParseDate(req.VacateDate)
	if err != nil {
		return nil, err
	}
	moveIn, err := billing.ParseDate(req.MoveInDate)
	if err != nil {
		return nil, err
	}
	return h.Workflow.Splitter.PreviewSplit(r.Context(), req.InvoiceID, req.AccountNumber, vacate, moveIn)
}

// =============================================================================
// OCCUPIER CHANGE ENDPOINT
// =============================================================================

// RunOccupierChange executes the full occupier-change workflow in one call:
// locate the outgoing contact, create the successor, reassign post-move-in
// invoices and the repeating template, optionally split the straddling
// invoice, and retire the outgoing contact.
//
// Steps after successor creation are independent writes; a step failure is
// recorded on the response rather than aborting the run.
// POST /api/occupier-changes
func (h *Handler) RunOccupierChange(w http.ResponseWriter, r *http.Request) {
	var req OccupierChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	vacate, err := billing.ParseDate(req.VacateDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vacate_date, expected YYYY-MM-DD", err)
		return
	}
	moveIn, err := billing.ParseDate(req.MoveInDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid move_in_date, expected YYYY-MM-DD", err)
		return
	}

	ctx := r.Context()
	change := &tenancy.OccupierChange{
		OutgoingAccountNumber: req.AccountNumber,
		VacateDate:            vacate,
		MoveInDate:            moveIn,
		Incoming: tenancy.NewOccupier{
			ContactCode: billing.ContactCode(req.NewOccupier.ContactCode),
			FirstName:   req.NewOccupier.FirstName,
			LastName:    req.NewOccupier.LastName,
			Email:       req.NewOccupier.Email,
		},
	}

	if err := h.Workflow.Begin(ctx, change); err != nil {
		writeError(w, statusForError(err), "Cannot start occupier change", err)
		return
	}
	if err := h.Workflow.CreateSuccessor(ctx, change); err != nil {
		writeError(w, statusForError(err), "Cannot create successor contact", err)
		return
	}

	var stepErrors []string

	// Reassign everything issued on or after the move-in date.
	candidates, err := h.Workflow.Reassign.FindReassignableInvoices(ctx, change.Outgoing.ID, moveIn)
	if err != nil {
		stepErrors = append(stepErrors, "list invoices: "+err.Error())
	} else if len(candidates) > 0 {
		ids := make([]string, 0, len(candidates))
		for _, inv := range candidates {
			ids = append(ids, inv.ID)
		}
		if err := h.Workflow.ReassignInvoices(ctx, change, ids); err != nil {
			stepErrors = append(stepErrors, "reassign invoices: "+err.Error())
		}
	}

	if err := h.Workflow.ReassignTemplate(ctx, change); err != nil {
		stepErrors = append(stepErrors, "reassign template: "+err.Error())
	}

	if req.SplitInvoice {
		if err := h.Workflow.PreviewSplit(ctx, change); err != nil {
			stepErrors = append(stepErrors, "split preview: "+err.Error())
		} else if err := h.Workflow.ExecuteSplit(ctx, change); err != nil {
			stepErrors = append(stepErrors, "split execute: "+err.Error())
		}
	}

	if err := h.Workflow.RetireOutgoing(ctx, change); err != nil {
		stepErrors = append(stepErrors, "retire outgoing: "+err.Error())
	}

	dto := struct {
		OccupierChangeDTO
		StepErrors []string `json:"step_errors,omitempty"`
	}{
		OccupierChangeDTO: OccupierChangeDTO{
			Outgoing:   toContactDTO(change.Outgoing),
			Successor:  toContactDTO(change.Successor),
			Invoices:   toReassignmentDTO(change.Invoices),
			Template:   toTemplateDTO(change.Template),
			SplitPlan:  toSplitPlanDTO(change.SplitPlan),
			Split:      toSplitResultDTO(change.Split),
			Retirement: toRetirementDTO(change.Retirement),
		},
		StepErrors: stepErrors,
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

// urlParam reads a chi route parameter. Account numbers contain a slash, so
// clients percent-encode them; chi matches on the raw path and leaves the
// escaping in place.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrDuplicateAccount):
		return http.StatusConflict
	case ledger.IsNotFound(err),
		errors.Is(err, tenancy.ErrNoUnpaidInvoice),
		errors.Is(err, tenancy.ErrNoTemplate):
		return http.StatusNotFound
	case billing.IsClientError(err),
		errors.Is(err, tenancy.ErrFirstNameRequired),
		errors.Is(err, tenancy.ErrNoAvailableSequence):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
