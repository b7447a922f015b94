package accounting_test

import (
	"testing"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func item(qty, price, tax, discount string) domain.LineItem {
	return domain.LineItem{
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		TaxRate:         dec(tax),
		DiscountPercent: dec(discount),
	}
}

func TestComputeLine(t *testing.T) {
	testCases := []struct {
		name         string
		item         domain.LineItem
		wantSubtotal string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "plain line, no discount",
			item:         item("2", "100", "21", "0"),
			wantSubtotal: "200",
			wantDiscount: "0",
			wantTax:      "42",
			wantTotal:    "242",
		},
		{
			name:         "line discount before tax",
			item:         item("1", "50", "21", "10"),
			wantSubtotal: "50",
			wantDiscount: "5",
			wantTax:      "9.45",
			wantTotal:    "54.45",
		},
		{
			name:         "fractional quantity rounds half up",
			item:         item("1.5", "9.99", "21", "0"),
			wantSubtotal: "14.99", // 14.985 rounds up
			wantDiscount: "0",
			wantTax:      "3.15", // 3.1479 rounds to 3.15
			wantTotal:    "18.14",
		},
		{
			name:         "zero quantity",
			item:         item("0", "100", "21", "0"),
			wantSubtotal: "0",
			wantDiscount: "0",
			wantTax:      "0",
			wantTotal:    "0",
		},
		{
			name:         "full discount",
			item:         item("3", "10", "21", "100"),
			wantSubtotal: "30",
			wantDiscount: "30",
			wantTax:      "0",
			wantTotal:    "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := accounting.ComputeLine(tc.item)
			require.NoError(t, err)
			assert.True(t, got.Subtotal.Equal(dec(tc.wantSubtotal)), "subtotal: got %s want %s", got.Subtotal, tc.wantSubtotal)
			assert.True(t, got.DiscountAmount.Equal(dec(tc.wantDiscount)), "discount: got %s want %s", got.DiscountAmount, tc.wantDiscount)
			assert.True(t, got.TaxAmount.Equal(dec(tc.wantTax)), "tax: got %s want %s", got.TaxAmount, tc.wantTax)
			assert.True(t, got.Total.Equal(dec(tc.wantTotal)), "total: got %s want %s", got.Total, tc.wantTotal)
		})
	}
}

func TestComputeLine_Invalid(t *testing.T) {
	_, err := accounting.ComputeLine(item("-1", "10", "21", "0"))
	assert.Error(t, err)

	_, err = accounting.ComputeLine(item("1", "10", "21", "101"))
	assert.Error(t, err)

	_, err = accounting.ComputeLine(item("1", "10", "-5", "0"))
	assert.Error(t, err)
}

// The reference scenario: (qty 2 @ 100, 21% tax, 0% discount) and
// (qty 1 @ 50, 21% tax, 10% discount), round-per-line policy.
func TestAggregate_ReferenceScenario(t *testing.T) {
	items := []domain.LineItem{
		item("2", "100", "21", "0"),
		item("1", "50", "21", "10"),
	}

	totals, err := accounting.Aggregate(items, domain.DiscountNone, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(dec("250")), "subtotal: %s", totals.Subtotal)
	assert.True(t, totals.DiscountTotal.Equal(dec("5")), "discount: %s", totals.DiscountTotal)
	assert.True(t, totals.TaxTotal.Equal(dec("51.45")), "tax: %s", totals.TaxTotal)
	assert.True(t, totals.Total.Equal(dec("296.45")), "total: %s", totals.Total)

	// Invariant: total == subtotal - discountTotal + taxTotal
	recomposed := totals.Subtotal.Sub(totals.DiscountTotal).Add(totals.TaxTotal)
	assert.True(t, totals.Total.Equal(recomposed))
}

func TestAggregate_DocumentDiscounts(t *testing.T) {
	items := []domain.LineItem{
		item("2", "100", "21", "0"), // total 242.00
	}

	t.Run("percent", func(t *testing.T) {
		totals, err := accounting.Aggregate(items, domain.DiscountPercent, dec("10"))
		require.NoError(t, err)
		assert.True(t, totals.DiscountTotal.Equal(dec("24.2")), "discount: %s", totals.DiscountTotal)
		assert.True(t, totals.Total.Equal(dec("217.8")), "total: %s", totals.Total)
	})

	t.Run("fixed", func(t *testing.T) {
		totals, err := accounting.Aggregate(items, domain.DiscountFixed, dec("42"))
		require.NoError(t, err)
		assert.True(t, totals.Total.Equal(dec("200")), "total: %s", totals.Total)
	})

	t.Run("fixed capped at grand total", func(t *testing.T) {
		totals, err := accounting.Aggregate(items, domain.DiscountFixed, dec("9999"))
		require.NoError(t, err)
		assert.True(t, totals.Total.IsZero(), "total: %s", totals.Total)
	})

	t.Run("percent out of range", func(t *testing.T) {
		_, err := accounting.Aggregate(items, domain.DiscountPercent, dec("120"))
		assert.Error(t, err)
	})
}

// Aggregation must be idempotent: recomputing over unchanged items yields
// identical totals.
func TestAggregate_Idempotent(t *testing.T) {
	items := []domain.LineItem{
		item("3", "19.99", "21", "5"),
		item("1.25", "80", "9", "0"),
		item("7", "4.5", "0", "50"),
	}

	first, err := accounting.ApplyToItems(items, domain.DiscountPercent, dec("2.5"))
	require.NoError(t, err)
	second, err := accounting.ApplyToItems(items, domain.DiscountPercent, dec("2.5"))
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DiscountTotal.Equal(second.DiscountTotal))
	assert.True(t, first.TaxTotal.Equal(second.TaxTotal))
	assert.True(t, first.Total.Equal(second.Total))

	recomposed := second.Subtotal.Sub(second.DiscountTotal).Add(second.TaxTotal)
	assert.True(t, second.Total.Equal(recomposed))
}

func TestApplyToItems_WritesDerivedFields(t *testing.T) {
	items := []domain.LineItem{item("1", "50", "21", "10")}

	_, err := accounting.ApplyToItems(items, domain.DiscountNone, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, items[0].Subtotal.Equal(dec("50")))
	assert.True(t, items[0].TaxAmount.Equal(dec("9.45")))
	assert.True(t, items[0].Total.Equal(dec("54.45")))
}
