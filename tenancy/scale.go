package tenancy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brae/tenancy-engine/billing"
	"github.com/brae/tenancy-engine/ledger"
)

// =============================================================================
// LINE-ITEM SCALING
// =============================================================================

// ScaleLineItems produces a line-item set whose amounts are the originals
// scaled by newTotal/originalTotal, with each description annotated with the
// period label so the two resulting invoices are distinguishable in the
// ledger.
//
// Rounding here is ordinary 2-decimal-place money rounding, distinct from
// the 10p ceiling applied to the three bucket totals upstream. Identity
// fields (account code, tax type) are carried unchanged; optional fields are
// carried only when present in the source, never synthesized.
func ScaleLineItems(items []ledger.LineItem, originalTotal, newTotal billing.Money, periodLabel string) ([]ledger.LineItem, error) {
	if originalTotal.IsZero() {
		return nil, fmt.Errorf("scale line items: original total is zero")
	}
	factor := newTotal.Value.Div(originalTotal.Value)

	scaled := make([]ledger.LineItem, 0, len(items))
	for _, item := range items {
		lineAmount := item.LineAmount.Mul(factor).RoundToPence()

		quantity := item.Quantity
		if quantity.IsZero() {
			quantity = decimal.NewFromInt(1)
		}
		unitAmount := lineAmount.Div(quantity).RoundToPence()

		next := ledger.LineItem{
			ID:          item.ID,
			Description: fmt.Sprintf("%s (%s)", item.Description, periodLabel),
			Quantity:    quantity,
			UnitAmount:  unitAmount,
			LineAmount:  lineAmount,
			AccountCode: item.AccountCode,
			TaxType:     item.TaxType,
		}

		// Optional fields carry over only when present and non-empty.
		if item.ItemCode != "" {
			next.ItemCode = item.ItemCode
		}
		if item.TaxAmount != nil {
			taxAmount := item.TaxAmount.Mul(factor).RoundToPence()
			next.TaxAmount = &taxAmount
		}
		if item.DiscountRate != nil {
			rate := *item.DiscountRate
			next.DiscountRate = &rate
		}
		if len(item.Tracking) > 0 {
			next.Tracking = append([]ledger.TrackingCategory(nil), item.Tracking...)
		}

		scaled = append(scaled, next)
	}
	return scaled, nil
}
