/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates contacts, groups,
	invoices, and repeating templates that demonstrate specific workflows.

AVAILABLE SCENARIOS:

	quarterly-changeover: Quarterly tenant mid-period, ready for a split
	monthly-changeover:   Mid-month tenant on a day-16 schedule
	arrears:              Outgoing tenant with old unpaid invoices

HOW SCENARIOS WORK:
 1. Create the archival and property contact groups
 2. Create the outgoing contact with billing defaults
 3. Raise invoices against the contact (paid and unpaid)
 4. Create the repeating billing template

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "quarterly-changeover"}

NOTE:

	Scenarios write into the live store. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Handler context, writeJSON/writeError
  - server.go: Route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "quarterly-changeover",
		Name:        "Quarterly Changeover",
		Description: "Quarterly tenant (/1A) with an unpaid quarter invoice, ready for a mid-period split",
	},
	{
		ID:          "monthly-changeover",
		Name:        "Monthly Changeover",
		Description: "Monthly tenant (/3C, day-16 schedule) with an unpaid month invoice",
	},
	{
		ID:          "arrears",
		Name:        "Arrears",
		Description: "Outgoing tenant with old unpaid invoices, exercising retirement with balance",
	},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario seeds the selected scenario into the store.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "quarterly-changeover":
		err = h.loadQuarterlyChangeover(r.Context())
	case "monthly-changeover":
		err = h.loadMonthlyChangeover(r.Context())
	case "arrears":
		err = h.loadArrears(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// groupSeeder is implemented by both store implementations; scenarios need
// it because group creation is a platform-side operation with no interface.
type groupSeeder interface {
	AddGroup(name string) (ledger.ContactGroup, error)
}

func (h *Handler) seedGroups(propertyName string) error {
	seeder, ok := h.Store.(groupSeeder)
	if !ok {
		return fmt.Errorf("store does not support group seeding")
	}
	if _, err := seeder.AddGroup(ledger.PreviousAccountsGroupName); err != nil {
		return err
	}
	_, err := seeder.AddGroup(propertyName)
	return err
}

// loadQuarterlyChangeover seeds a /1A tenant with an unpaid Jan-Mar quarter
// invoice of 280.00 and a quarterly repeating template.
func (h *Handler) loadQuarterlyChangeover(ctx context.Context) error {
	if err := h.seedGroups("BRK001 Berkeley House"); err != nil {
		return err
	}

	contact, err := h.Store.CreateContact(ctx, ledger.Contact{
		Name:          "BRK0012 - (Flat 2) Berkeley House",
		AccountNumber: "BRK001231/1A",
		FirstName:     "Margaret",
		LastName:      "Shaw",
		EmailAddress:  "m.shaw@example.com",
		Status:        ledger.ContactStatusActive,
		Addresses: []ledger.Address{
			{Type: "STREET", Line1: "Flat 2, Berkeley House", City: "Brighton", PostalCode: "BN1 3XE"},
		},
	})
	if err != nil {
		return err
	}

	_, err = h.Store.CreateInvoice(ctx, ledger.Invoice{
		ContactID: contact.ID,
		Type:      ledger.InvoiceTypeReceivable,
		Status:    ledger.InvoiceStatusAuthorised,
		Date:      billing.NewDate(2025, 1, 1),
		DueDate:   billing.NewDate(2025, 1, 14),
		Total:     billing.ParseMoneyOrZero("280.00"),
		LineItems: []ledger.LineItem{
			{
				Description: "Service charge",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  billing.ParseMoneyOrZero("230.00"),
				LineAmount:  billing.ParseMoneyOrZero("230.00"),
				AccountCode: "200",
			},
			{
				Description: "Reserve fund contribution",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  billing.ParseMoneyOrZero("50.00"),
				LineAmount:  billing.ParseMoneyOrZero("50.00"),
				AccountCode: "210",
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = h.Store.CreateRepeatingInvoice(ctx, ledger.RepeatingInvoice{
		ContactID: contact.ID,
		Type:      ledger.InvoiceTypeReceivable,
		Status:    ledger.RepeatingStatusAuthorised,
		Reference: "Service charge Q",
		Schedule: ledger.RepeatSchedule{
			Period:            3,
			Unit:              "MONTHLY",
			DueDate:           14,
			DueDateType:       "DAYSAFTERBILLDATE",
			StartDate:         billing.NewDate(2025, 1, 1),
			NextScheduledDate: billing.NewDate(2025, 4, 1),
		},
		LineItems: []ledger.LineItem{
			{
				Description: "Service charge",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  billing.ParseMoneyOrZero("280.00"),
				LineAmount:  billing.ParseMoneyOrZero("280.00"),
				AccountCode: "200",
			},
		},
		Total: billing.ParseMoneyOrZero("280.00"),
	})
	return err
}

// loadMonthlyChangeover seeds a /3C tenant on the day-16 monthly schedule.
func (h *Handler) loadMonthlyChangeover(ctx context.Context) error {
	if err := h.seedGroups("HGH004 Highgate Court"); err != nil {
		return err
	}

	contact, err := h.Store.CreateContact(ctx, ledger.Contact{
		Name:          "HGH0045 - (Flat 5) Highgate Court",
		AccountNumber: "HGH004512/3C",
		FirstName:     "Daniel",
		LastName:      "Okafor",
		Status:        ledger.ContactStatusActive,
	})
	if err != nil {
		return err
	}

	_, err = h.Store.CreateInvoice(ctx, ledger.Invoice{
		ContactID: contact.ID,
		Type:      ledger.InvoiceTypeReceivable,
		Status:    ledger.InvoiceStatusAuthorised,
		Date:      billing.NewDate(2025, 2, 16),
		DueDate:   billing.NewDate(2025, 3, 2),
		Total:     billing.ParseMoneyOrZero("95.50"),
		LineItems: []ledger.LineItem{
			{
				Description: "Service charge",
				Quantity:    decimal.NewFromInt(1),
				UnitAmount:  billing.ParseMoneyOrZero("95.50"),
				LineAmount:  billing.ParseMoneyOrZero("95.50"),
				AccountCode: "200",
			},
		},
	})
	return err
}

// loadArrears seeds a tenant with two old unpaid invoices and no template,
// for exercising retirement with an outstanding balance.
func (h *Handler) loadArrears(ctx context.Context) error {
	if err := h.seedGroups("WST002 Westbourne Terrace"); err != nil {
		return err
	}

	contact, err := h.Store.CreateContact(ctx, ledger.Contact{
		Name:          "WST0021 - (Flat 1) Westbourne Terrace",
		AccountNumber: "WST002120/2A",
		FirstName:     "Iris",
		LastName:      "Calloway",
		Status:        ledger.ContactStatusActive,
	})
	if err != nil {
		return err
	}

	for _, month := range []time.Month{time.July, time.October} {
		_, err = h.Store.CreateInvoice(ctx, ledger.Invoice{
			ContactID: contact.ID,
			Type:      ledger.InvoiceTypeReceivable,
			Status:    ledger.InvoiceStatusAuthorised,
			Date:      billing.NewDate(2024, month, 1),
			Total:     billing.ParseMoneyOrZero("140.00"),
			LineItems: []ledger.LineItem{
				{
					Description: "Service charge",
					Quantity:    decimal.NewFromInt(1),
					UnitAmount:  billing.ParseMoneyOrZero("140.00"),
					LineAmount:  billing.ParseMoneyOrZero("140.00"),
					AccountCode: "200",
				},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
