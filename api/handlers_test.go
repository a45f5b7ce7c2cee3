/*
handlers_test.go - HTTP tests for the API layer

Tests run requests through the full chi router against the in-memory store,
so routing, JSON codecs, and error mapping are exercised together.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brae/tenancy-engine/api"
	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
	"github.com/brae/tenancy-engine/ledger/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(mem)))
	t.Cleanup(srv.Close)
	return srv, mem
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// seedTenant creates groups, a quarterly contact, and an unpaid straddling
// invoice, mirroring the quarterly-changeover demo scenario.
func seedTenant(t *testing.T, mem *store.Memory) (*ledger.Contact, *ledger.Invoice) {
	t.Helper()
	ctx := context.Background()

	_, err := mem.AddGroup(ledger.PreviousAccountsGroupName)
	require.NoError(t, err)
	_, err = mem.AddGroup("ANP001 Anderson Place")
	require.NoError(t, err)

	contact, err := mem.CreateContact(ctx, ledger.Contact{
		Name:          "ANP001041 - (2F1) 10 Anderson Place",
		AccountNumber: "ANP001041/1A",
		FirstName:     "June",
		LastName:      "Carver",
		Status:        ledger.ContactStatusActive,
	})
	require.NoError(t, err)

	invoice, err := mem.CreateInvoice(ctx, ledger.Invoice{
		ContactID: contact.ID,
		Type:      ledger.InvoiceTypeReceivable,
		Status:    ledger.InvoiceStatusAuthorised,
		Date:      billing.NewDate(2025, time.January, 1),
		DueDate:   billing.NewDate(2025, time.January, 14),
		Total:     billing.ParseMoneyOrZero("280.00"),
		LineItems: []ledger.LineItem{{
			Description: "Service charge",
			Quantity:    decimal.NewFromInt(1),
			UnitAmount:  billing.ParseMoneyOrZero("280.00"),
			LineAmount:  billing.ParseMoneyOrZero("280.00"),
			AccountCode: "200",
		}},
	})
	require.NoError(t, err)
	return contact, invoice
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

func TestAPI_ListContactCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	var codes []api.ContactCodeDTO
	status := getJSON(t, srv, "/api/contact-codes", &codes)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, codes, 17)

	byCode := make(map[string]api.ContactCodeDTO, len(codes))
	for _, c := range codes {
		byCode[c.Code] = c
	}
	assert.Equal(t, "quarterly", byCode["/1A"].Schedule.Frequency)
	assert.Equal(t, 1, byCode["/1A"].Schedule.StartDay)
	assert.True(t, byCode["/1A"].Schedule.Splittable)
	assert.Equal(t, "monthly", byCode["/3C"].Schedule.Frequency)
	assert.Equal(t, 16, byCode["/3C"].Schedule.StartDay)
	assert.False(t, byCode["/P"].Schedule.Splittable)
}

func TestAPI_ParseAccount(t *testing.T) {
	srv, _ := newTestServer(t)

	var account api.AccountDTO
	status := getJSON(t, srv, "/api/accounts/ANP001041%2F1A", &account)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ANP001041/1A", account.AccountNumber)
	assert.Equal(t, "ANP00104", account.PropertyBase)
	assert.Equal(t, 1, account.Sequence)
	assert.Equal(t, "/1A", account.ContactCode)
	assert.Equal(t, "ANP001041", account.BaseAccount)
}

func TestAPI_ParseAccount_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	var errResp api.ErrorResponse
	status := getJSON(t, srv, "/api/accounts/not-an-account", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid account number", errResp.Error)
}

func TestAPI_ResolvePeriod(t *testing.T) {
	srv, _ := newTestServer(t)

	var period api.PeriodDTO
	status := getJSON(t, srv, "/api/accounts/ANP001041%2F1A/period?date=2025-02-10", &period)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-01-01", period.Start)
	assert.Equal(t, "2025-03-31", period.End)
	assert.Equal(t, 90, period.TotalDays)
	assert.False(t, period.Fallback)
}

func TestAPI_ResolvePeriod_NonBillableCode(t *testing.T) {
	srv, _ := newTestServer(t)

	var errResp api.ErrorResponse
	status := getJSON(t, srv, "/api/accounts/ANP001041%2FP/period?date=2025-02-10", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_ProposeAccount(t *testing.T) {
	srv, mem := newTestServer(t)
	seedTenant(t, mem)

	var proposal api.ProposalDTO
	status := postJSON(t, srv, "/api/accounts/propose", api.ProposeAccountRequest{
		AccountNumber: "ANP001041/1A",
		ContactCode:   "/1A",
	}, &proposal)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ANP001042/1A", proposal.AccountNumber)
	assert.True(t, proposal.Available)
	assert.Nil(t, proposal.Duplicate)
}

// =============================================================================
// CONTACT ENDPOINTS
// =============================================================================

func TestAPI_GetContact_ByIDAndAccountNumber(t *testing.T) {
	srv, mem := newTestServer(t)
	contact, _ := seedTenant(t, mem)

	var byID api.ContactDTO
	status := getJSON(t, srv, "/api/contacts/"+contact.ID, &byID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, contact.ID, byID.ID)

	var byAccount api.ContactDTO
	status = getJSON(t, srv, "/api/contacts/ANP001041%2F1A", &byAccount)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, contact.ID, byAccount.ID)

	status = getJSON(t, srv, "/api/contacts/ZZZ999999%2F1A", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_GetUnpaidInvoice(t *testing.T) {
	srv, mem := newTestServer(t)
	contact, invoice := seedTenant(t, mem)

	var inv api.InvoiceDTO
	status := getJSON(t, srv, "/api/contacts/"+contact.ID+"/invoices/unpaid", &inv)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, invoice.ID, inv.ID)
	assert.Equal(t, "280.00", inv.Total)
	assert.Equal(t, "280.00", inv.AmountDue)
}

func TestAPI_GetUnpaidInvoice_NoneIs404(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	contact, err := mem.CreateContact(ctx, ledger.Contact{
		Name: "x", AccountNumber: "ANP001041/1A", FirstName: "June",
	})
	require.NoError(t, err)

	status := getJSON(t, srv, "/api/contacts/"+contact.ID+"/invoices/unpaid", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_RetireContact(t *testing.T) {
	srv, mem := newTestServer(t)
	contact, _ := seedTenant(t, mem)

	var retirement api.RetirementDTO
	status := postJSON(t, srv, "/api/contacts/"+contact.ID+"/retire", nil, &retirement)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, retirement.HasBalance)
	assert.Equal(t, "280.00", retirement.Outstanding)
	assert.Equal(t, "ANP001041/P", retirement.AccountRewritten)
	assert.Equal(t, string(ledger.ContactStatusActive), retirement.Status)
}

// =============================================================================
// SPLIT ENDPOINTS
// =============================================================================

func TestAPI_PreviewSplit(t *testing.T) {
	// GIVEN: an unpaid Jan-Mar quarter invoice at 280.00
	srv, mem := newTestServer(t)
	_, invoice := seedTenant(t, mem)

	// WHEN: previewing a 13 Feb vacate / 15 Feb move-in
	var plan api.SplitPlanDTO
	status := postJSON(t, srv, "/api/splits/preview", api.SplitPreviewRequest{
		InvoiceID:     invoice.ID,
		AccountNumber: "ANP001041/1A",
		VacateDate:    "2025-02-13",
		MoveInDate:    "2025-02-15",
	}, &plan)
	require.Equal(t, http.StatusOK, status)

	// THEN: 44/1/45 days at the quarter's daily rate, ceiling-rounded
	assert.Equal(t, invoice.ID, plan.InvoiceID)
	assert.Equal(t, "280.00", plan.InvoiceTotal)
	assert.Equal(t, 90, plan.Period.TotalDays)
	assert.Equal(t, "3.1111", plan.DailyRate)
	assert.Equal(t, 44, plan.PreviousOccupier.Days)
	assert.Equal(t, "136.90", plan.PreviousOccupier.Amount)
	assert.Equal(t, 1, plan.VoidPeriod.Days)
	assert.Equal(t, 45, plan.NewOccupier.Days)
	assert.Equal(t, "140.00", plan.NewOccupier.Amount)
}

func TestAPI_PreviewSplit_BadDates(t *testing.T) {
	srv, mem := newTestServer(t)
	_, invoice := seedTenant(t, mem)

	status := postJSON(t, srv, "/api/splits/preview", api.SplitPreviewRequest{
		InvoiceID:     invoice.ID,
		AccountNumber: "ANP001041/1A",
		VacateDate:    "13/02/2025",
		MoveInDate:    "2025-02-15",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_ExecuteSplit(t *testing.T) {
	srv, mem := newTestServer(t)
	_, invoice := seedTenant(t, mem)
	ctx := context.Background()

	successor, err := mem.CreateContact(ctx, ledger.Contact{
		Name: "successor", AccountNumber: "ANP001042/1A", FirstName: "Robert",
	})
	require.NoError(t, err)

	var result api.SplitResultDTO
	status := postJSON(t, srv, "/api/splits/execute", api.ExecuteSplitRequest{
		SplitPreviewRequest: api.SplitPreviewRequest{
			InvoiceID:     invoice.ID,
			AccountNumber: "ANP001041/1A",
			VacateDate:    "2025-02-13",
			MoveInDate:    "2025-02-15",
		},
		NewContactID: successor.ID,
	}, &result)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "completed", result.Phase)
	assert.Equal(t, "136.90", result.PreviousAmount)
	assert.Equal(t, "140.00", result.NewAmount)
	require.NotNil(t, result.NewInvoice)
	assert.Equal(t, successor.ID, result.NewInvoice.ContactID)

	// The original invoice was adjusted in place.
	adjusted, err := mem.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "136.90", adjusted.Total.String())
}

func TestAPI_ExecuteSplit_RequiresNewContact(t *testing.T) {
	srv, mem := newTestServer(t)
	_, invoice := seedTenant(t, mem)

	status := postJSON(t, srv, "/api/splits/execute", api.ExecuteSplitRequest{
		SplitPreviewRequest: api.SplitPreviewRequest{
			InvoiceID:     invoice.ID,
			AccountNumber: "ANP001041/1A",
			VacateDate:    "2025-02-13",
			MoveInDate:    "2025-02-15",
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// OCCUPIER CHANGE
// =============================================================================

func TestAPI_RunOccupierChange(t *testing.T) {
	// GIVEN: the full quarterly picture plus a repeating template
	srv, mem := newTestServer(t)
	contact, _ := seedTenant(t, mem)
	ctx := context.Background()

	_, err := mem.CreateRepeatingInvoice(ctx, ledger.RepeatingInvoice{
		ContactID: contact.ID,
		Status:    ledger.RepeatingStatusAuthorised,
		Reference: "Service charge Q",
		Schedule: ledger.RepeatSchedule{
			Period: 3, Unit: "MONTHLY",
			StartDate:         billing.NewDate(2025, time.January, 1),
			NextScheduledDate: billing.NewDate(2025, time.April, 1),
		},
		Total: billing.ParseMoneyOrZero("280.00"),
	})
	require.NoError(t, err)

	// WHEN: running the whole workflow with a split
	var out struct {
		api.OccupierChangeDTO
		StepErrors []string `json:"step_errors"`
	}
	status := postJSON(t, srv, "/api/occupier-changes", api.OccupierChangeRequest{
		AccountNumber: "ANP001041/1A",
		VacateDate:    "2025-02-13",
		MoveInDate:    "2025-02-15",
		NewOccupier: api.NewOccupierRequest{
			ContactCode: "/1A",
			FirstName:   "Robert",
			Email:       "rob@example.com",
		},
		SplitInvoice: true,
	}, &out)
	require.Equal(t, http.StatusOK, status)

	// THEN: every step completed
	assert.Empty(t, out.StepErrors)
	require.NotNil(t, out.Successor)
	assert.Equal(t, "ANP001042/1A", out.Successor.AccountNumber)
	require.NotNil(t, out.Template)
	assert.True(t, out.Template.OldDeleted)
	require.NotNil(t, out.Split)
	assert.Equal(t, "completed", out.Split.Phase)
	require.NotNil(t, out.Retirement)
	assert.Equal(t, "ANP001041/P", out.Retirement.AccountRewritten)
}

func TestAPI_RunOccupierChange_BadAccount(t *testing.T) {
	srv, _ := newTestServer(t)

	status := postJSON(t, srv, "/api/occupier-changes", api.OccupierChangeRequest{
		AccountNumber: "nope",
		VacateDate:    "2025-02-13",
		MoveInDate:    "2025-02-15",
		NewOccupier:   api.NewOccupierRequest{ContactCode: "/1A", FirstName: "Robert"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_RunOccupierChange_DuplicateSuccessorIs409(t *testing.T) {
	// GIVEN: the successor account number is already taken
	srv, mem := newTestServer(t)
	seedTenant(t, mem)
	_, err := mem.CreateContact(context.Background(), ledger.Contact{
		Name: "squatter", AccountNumber: "ANP001042/1A", FirstName: "x",
	})
	require.NoError(t, err)

	status := postJSON(t, srv, "/api/occupier-changes", api.OccupierChangeRequest{
		AccountNumber: "ANP001041/1A",
		VacateDate:    "2025-02-13",
		MoveInDate:    "2025-02-15",
		NewOccupier:   api.NewOccupierRequest{ContactCode: "/1A", FirstName: "Robert"},
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_Scenarios(t *testing.T) {
	srv, mem := newTestServer(t)

	var list []api.ScenarioDTO
	status := getJSON(t, srv, "/api/scenarios/", &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 3)

	status = postJSON(t, srv, "/api/scenarios/load", api.LoadScenarioRequest{
		ScenarioID: "quarterly-changeover",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	// The scenario landed in the store.
	contact, err := mem.FindContactByAccountNumber(context.Background(), "BRK001231/1A")
	require.NoError(t, err)
	require.NotNil(t, contact)

	var current api.ScenarioDTO
	status = getJSON(t, srv, "/api/scenarios/current", &current)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "quarterly-changeover", current.ID)

	status = postJSON(t, srv, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
