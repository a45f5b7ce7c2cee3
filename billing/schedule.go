package billing

// =============================================================================
// CONTACT CODES - Canonical code table
// =============================================================================

// ContactCode is the /XX suffix on an account number encoding how the
// occupier is billed. The set of codes is closed; this table is the single
// source of truth for code -> schedule mapping, consumed by both the grammar
// and the splitting workflow.
type ContactCode string

const (
	// Quarterly billing
	CodeQuarterly1st  ContactCode = "/1A"
	CodeQuarterly5th  ContactCode = "/2A"
	CodeQuarterly12th ContactCode = "/1B"
	CodeQuarterly14th ContactCode = "/3A"

	// Monthly billing
	CodeMonthly1st  ContactCode = "/3B"
	CodeMonthly16th ContactCode = "/3C"
	CodeMonthly23rd ContactCode = "/3D"

	// Payment types
	CodeSinglePayer    ContactCode = "/1C"
	CodePaymentPlan    ContactCode = "/A"
	CodeStandingOrder  ContactCode = "/B"
	CodeDirectDebit    ContactCode = "/D"

	// Special situations
	CodePreviousAccount ContactCode = "/P"
	CodeOneOffJob       ContactCode = "/Q"
	CodeRefusesToPay    ContactCode = "/R"
	CodeStopped         ContactCode = "/S"

	// Third-party payers
	CodeCastlerock  ContactCode = "/CR"
	CodeLinkHousing ContactCode = "/LH"
)

// Frequency describes a billing cadence. Only monthly and quarterly
// frequencies are eligible for period resolution and invoice splitting.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyOneOff    Frequency = "one-off"
	FrequencyIrregular Frequency = "irregular"
	FrequencyNone      Frequency = "none"
)

// BillingSchedule describes when invoices are raised for a contact code.
// StartDay and PeriodDays are set iff the frequency is monthly or quarterly.
type BillingSchedule struct {
	Frequency  Frequency
	StartDay   int // day-of-month anchoring each period, 0 when not billable
	PeriodDays int // 30 monthly, 90 quarterly; used only for fallback resolution
}

// Splittable reports whether invoices on this schedule can be pro-rated
// across an occupier change.
func (s BillingSchedule) Splittable() bool {
	return s.Frequency == FrequencyMonthly || s.Frequency == FrequencyQuarterly
}

type codeEntry struct {
	Schedule    BillingSchedule
	Description string
}

// Payment-type codes (/1C, /A, /B, /D) carry no cadence of their own; they
// default to quarterly anchored on the 1st, which is the mapping the
// splitting workflow has always used.
var contactCodes = map[ContactCode]codeEntry{
	CodeQuarterly1st:  {BillingSchedule{FrequencyQuarterly, 1, 90}, "Invoiced quarterly on the 1st"},
	CodeQuarterly5th:  {BillingSchedule{FrequencyQuarterly, 5, 90}, "Invoiced quarterly on the 5th"},
	CodeQuarterly12th: {BillingSchedule{FrequencyQuarterly, 12, 90}, "Invoiced quarterly on the 12th"},
	CodeQuarterly14th: {BillingSchedule{FrequencyQuarterly, 14, 90}, "Invoiced quarterly on the 14th"},

	CodeMonthly1st:  {BillingSchedule{FrequencyMonthly, 1, 30}, "Invoiced monthly on the 1st"},
	CodeMonthly16th: {BillingSchedule{FrequencyMonthly, 16, 30}, "Invoiced monthly on the 16th"},
	CodeMonthly23rd: {BillingSchedule{FrequencyMonthly, 23, 30}, "Invoiced monthly on the 23rd"},

	CodeSinglePayer:   {BillingSchedule{FrequencyQuarterly, 1, 90}, "One person only pays"},
	CodePaymentPlan:   {BillingSchedule{FrequencyQuarterly, 1, 90}, "Current customer on a payment plan"},
	CodeStandingOrder: {BillingSchedule{FrequencyQuarterly, 1, 90}, "Pays by standing order"},
	CodeDirectDebit:   {BillingSchedule{FrequencyQuarterly, 1, 90}, "Pays by Direct Debit"},

	CodePreviousAccount: {BillingSchedule{Frequency: FrequencyNone}, "Past account still due (person moved out but still owes)"},
	CodeOneOffJob:       {BillingSchedule{Frequency: FrequencyOneOff}, "One off job only"},
	CodeRefusesToPay:    {BillingSchedule{Frequency: FrequencyNone}, "Refuses to pay. Not billed"},
	CodeStopped:         {BillingSchedule{Frequency: FrequencyNone}, "Stopped cleaning the stair. Not billed anymore, but may still owe money"},

	CodeCastlerock:  {BillingSchedule{Frequency: FrequencyIrregular}, "Accounts paid for by Castlerock/Edinvar/Places for People"},
	CodeLinkHousing: {BillingSchedule{Frequency: FrequencyIrregular}, "Accounts paid for by Link Housing/Curb"},
}

// Codes representing active, recurring customers.
var activeCustomerCodes = map[ContactCode]bool{
	CodeQuarterly1st: true, CodeQuarterly5th: true, CodeQuarterly12th: true,
	CodeQuarterly14th: true, CodeMonthly1st: true, CodeMonthly16th: true,
	CodeMonthly23rd: true, CodeSinglePayer: true, CodeStandingOrder: true,
	CodeDirectDebit: true, CodePaymentPlan: true,
}

var thirdPartyCodes = map[ContactCode]bool{
	CodeCastlerock: true, CodeLinkHousing: true,
}

var inactiveCodes = map[ContactCode]bool{
	CodePreviousAccount: true, CodeOneOffJob: true,
	CodeRefusesToPay: true, CodeStopped: true,
}

// =============================================================================
// LOOKUPS
// =============================================================================

// LookupSchedule returns the billing schedule for a contact code. Unknown
// codes return ok=false; callers must treat that as "cannot split", never
// fall back to a guessed schedule.
func LookupSchedule(code ContactCode) (BillingSchedule, bool) {
	entry, ok := contactCodes[code]
	if !ok {
		return BillingSchedule{}, false
	}
	return entry.Schedule, true
}

// CodeDescription returns the human-readable meaning of a contact code.
func CodeDescription(code ContactCode) (string, bool) {
	entry, ok := contactCodes[code]
	if !ok {
		return "", false
	}
	return entry.Description, true
}

// ValidContactCode reports whether the code is in the canonical table.
func ValidContactCode(code ContactCode) bool {
	_, ok := contactCodes[code]
	return ok
}

// IsActiveCustomer reports whether the code represents an active, recurring
// customer (eligible target codes for a successor contact).
func IsActiveCustomer(code ContactCode) bool { return activeCustomerCodes[code] }

// IsThirdPartyPayer reports whether a housing association pays the account.
func IsThirdPartyPayer(code ContactCode) bool { return thirdPartyCodes[code] }

// IsInactive reports whether the code marks a retired or non-billed account.
func IsInactive(code ContactCode) bool { return inactiveCodes[code] }

// AllContactCodes returns every known code with its description, for
// operator-facing listings. Order is unspecified.
func AllContactCodes() map[ContactCode]string {
	out := make(map[ContactCode]string, len(contactCodes))
	for code, entry := range contactCodes {
		out[code] = entry.Description
	}
	return out
}
