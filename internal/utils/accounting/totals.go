// Package accounting implements the line item aggregator: all monetary math
// for quotations and invoices in one place, on shopspring decimals.
//
// Rounding policy: every derived line amount is rounded half-up to 2 decimal
// places per line item, and document totals are exact sums of those rounded
// figures. Recomputing over unchanged inputs is therefore idempotent and the
// invariant Total = Subtotal − DiscountTotal + TaxTotal holds at cent
// precision.
package accounting

import (
	"fmt"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var oneHundred = decimal.NewFromInt(100)

// LineTotals is the derived money breakdown of one line item.
type LineTotals struct {
	Subtotal       decimal.Decimal // quantity × unit price, before any discount
	DiscountAmount decimal.Decimal // subtotal × discountPercent/100
	TaxAmount      decimal.Decimal // tax on the discounted base
	Total          decimal.Decimal // discounted base + tax
}

// DocumentTotals is the aggregate over all line items of a document, after
// the optional document-level discount.
type DocumentTotals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal // line discounts + document-level discount
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// ComputeLine derives the money fields of a single line item from its raw
// inputs (quantity, unit price, tax rate, discount percent).
func ComputeLine(item domain.LineItem) (LineTotals, error) {
	if item.Quantity.IsNegative() {
		return LineTotals{}, fmt.Errorf("line quantity must not be negative, got %s", item.Quantity)
	}
	if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(oneHundred) {
		return LineTotals{}, fmt.Errorf("line discount percent must be within [0,100], got %s", item.DiscountPercent)
	}
	if item.TaxRate.IsNegative() {
		return LineTotals{}, fmt.Errorf("line tax rate must not be negative, got %s", item.TaxRate)
	}

	subtotal := round(item.Quantity.Mul(item.UnitPrice))
	discount := round(subtotal.Mul(item.DiscountPercent).Div(oneHundred))
	discounted := subtotal.Sub(discount)
	tax := round(discounted.Mul(item.TaxRate).Div(oneHundred))

	return LineTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          discounted.Add(tax),
	}, nil
}

// Aggregate computes document-level totals over a set of line items and an
// optional document-level discount. A PERCENT discount applies to the summed
// line totals' pre-tax base and is subtracted from the grand total; a FIXED
// discount is subtracted as-is, capped at the grand total.
func Aggregate(items []domain.LineItem, discountType domain.DiscountType, discountValue decimal.Decimal) (DocumentTotals, error) {
	var totals DocumentTotals
	totals.Subtotal = decimal.Zero
	totals.DiscountTotal = decimal.Zero
	totals.TaxTotal = decimal.Zero
	totals.Total = decimal.Zero

	for i, item := range items {
		line, err := ComputeLine(item)
		if err != nil {
			return DocumentTotals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal)
		totals.DiscountTotal = totals.DiscountTotal.Add(line.DiscountAmount)
		totals.TaxTotal = totals.TaxTotal.Add(line.TaxAmount)
		totals.Total = totals.Total.Add(line.Total)
	}

	docDiscount, err := documentDiscount(totals, discountType, discountValue)
	if err != nil {
		return DocumentTotals{}, err
	}
	totals.DiscountTotal = totals.DiscountTotal.Add(docDiscount)
	totals.Total = totals.Total.Sub(docDiscount)

	return totals, nil
}

func documentDiscount(totals DocumentTotals, discountType domain.DiscountType, discountValue decimal.Decimal) (decimal.Decimal, error) {
	switch discountType {
	case domain.DiscountNone, "":
		return decimal.Zero, nil
	case domain.DiscountPercent:
		if discountValue.IsNegative() || discountValue.GreaterThan(oneHundred) {
			return decimal.Zero, fmt.Errorf("document discount percent must be within [0,100], got %s", discountValue)
		}
		return round(totals.Total.Mul(discountValue).Div(oneHundred)), nil
	case domain.DiscountFixed:
		if discountValue.IsNegative() {
			return decimal.Zero, fmt.Errorf("document discount amount must not be negative, got %s", discountValue)
		}
		discount := round(discountValue)
		// Cap at the grand total so a fixed discount can never flip the sign.
		if discount.GreaterThan(totals.Total) {
			discount = totals.Total
		}
		return discount, nil
	}
	return decimal.Zero, fmt.Errorf("unknown document discount type %q", string(discountType))
}

// ApplyToItems recomputes and writes the derived fields of every line item in
// place, returning the document totals. Callers persist items and header
// totals in the same transaction so stored and recomputed values never drift.
func ApplyToItems(items []domain.LineItem, discountType domain.DiscountType, discountValue decimal.Decimal) (DocumentTotals, error) {
	for i := range items {
		line, err := ComputeLine(items[i])
		if err != nil {
			return DocumentTotals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		items[i].Subtotal = line.Subtotal
		items[i].TaxAmount = line.TaxAmount
		items[i].Total = line.Total
	}
	return Aggregate(items, discountType, discountValue)
}
