package store

import (
	"testing"

	"github.com/Neetrino/clean-house/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func cartLine(productPrice string, variantPrice string, qty int) models.CartItem {
	item := models.CartItem{
		Quantity: qty,
		Product: models.CartProduct{
			Price: decimal.RequireFromString(productPrice),
		},
	}
	if variantPrice != "" {
		item.Variant = &models.CartVariant{
			Price: decimal.RequireFromString(variantPrice),
		}
	}
	return item
}

func TestComputeCartTotals_Empty(t *testing.T) {
	subtotal, totalItems := ComputeCartTotals(nil)

	assert.True(t, subtotal.Equal(decimal.Zero))
	assert.Equal(t, 0, totalItems)
}

func TestComputeCartTotals_ProductPrices(t *testing.T) {
	items := []models.CartItem{
		cartLine("300", "", 2),
		cartLine("450", "", 1),
	}

	subtotal, totalItems := ComputeCartTotals(items)

	assert.True(t, subtotal.Equal(decimal.NewFromInt(1050)), "got %s", subtotal)
	assert.Equal(t, 3, totalItems)
}

func TestComputeCartTotals_VariantPriceOverrides(t *testing.T) {
	items := []models.CartItem{
		cartLine("100", "150", 2), // variant wins: 300
		cartLine("100", "", 1),    // product price: 100
	}

	subtotal, totalItems := ComputeCartTotals(items)

	assert.True(t, subtotal.Equal(decimal.NewFromInt(400)), "got %s", subtotal)
	assert.Equal(t, 3, totalItems)
}

func TestComputeCartTotals_VariantCheaperThanProduct(t *testing.T) {
	// The override is unconditional, even when the variant is cheaper.
	items := []models.CartItem{cartLine("500", "50", 1)}

	subtotal, _ := ComputeCartTotals(items)

	assert.True(t, subtotal.Equal(decimal.NewFromInt(50)), "got %s", subtotal)
}

func TestEffectiveUnitPrice(t *testing.T) {
	withVariant := cartLine("100", "250", 1)
	withoutVariant := cartLine("100", "", 1)

	assert.True(t, withVariant.EffectiveUnitPrice().Equal(decimal.NewFromInt(250)))
	assert.True(t, withoutVariant.EffectiveUnitPrice().Equal(decimal.NewFromInt(100)))
}
