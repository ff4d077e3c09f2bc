// Package pricing turns cart lines into order totals. It is pure
// computation: all rules live here so checkout and tests share one source
// of truth.
package pricing

import "github.com/shopspring/decimal"

var (
	taxRate = decimal.New(1, -1) // 10%

	// Orders above this subtotal ship free; everything else pays the
	// flat rate. Same currency unit as stored prices.
	freeShippingThreshold = decimal.NewFromInt(2000)
	flatShippingRate      = decimal.NewFromInt(300)
)

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// QuoteSubtotal derives tax, shipping and grand total from a subtotal.
func QuoteSubtotal(subtotal decimal.Decimal) Quote {
	tax := subtotal.Mul(taxRate)

	shipping := flatShippingRate
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
