package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCartValidate(t *testing.T) {
	tests := []struct {
		name    string
		cart    Cart
		wantErr error
	}{
		{
			name: "valid cart",
			cart: Cart{Items: []Item{
				{ProductID: 1, Quantity: 2, Price: d("49.99")},
				{ProductID: 2, Quantity: 1, Price: d("0")},
			}},
		},
		{
			name: "empty cart is valid",
			cart: Cart{},
		},
		{
			name: "zero quantity",
			cart: Cart{Items: []Item{
				{ProductID: 1, Quantity: 0, Price: d("10")},
			}},
			wantErr: ErrInvalidCart,
		},
		{
			name: "negative quantity",
			cart: Cart{Items: []Item{
				{ProductID: 1, Quantity: -3, Price: d("10")},
			}},
			wantErr: ErrInvalidCart,
		},
		{
			name: "negative price",
			cart: Cart{Items: []Item{
				{ProductID: 1, Quantity: 1, Price: d("-0.01")},
			}},
			wantErr: ErrInvalidCart,
		},
		{
			name: "bad line after good lines",
			cart: Cart{Items: []Item{
				{ProductID: 1, Quantity: 1, Price: d("5")},
				{ProductID: 2, Quantity: 0, Price: d("5")},
			}},
			wantErr: ErrInvalidCart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cart.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCartTotalPrice(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: 1, Quantity: 2, Price: d("10.50")},
		{ProductID: 2, Quantity: 3, Price: d("3.25")},
	}}

	assert.True(t, d("30.75").Equal(c.TotalPrice()),
		"expected total 30.75, got %s", c.TotalPrice())
}

func TestCartTotalPriceEmpty(t *testing.T) {
	assert.True(t, Cart{}.TotalPrice().IsZero())
}

func TestCartQuantityAggregatesRepeatedLines(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: 7, Quantity: 2, Price: d("10")},
		{ProductID: 8, Quantity: 1, Price: d("5")},
		{ProductID: 7, Quantity: 3, Price: d("9.50")},
	}}

	assert.Equal(t, 5, c.Quantity(7))
	assert.Equal(t, 1, c.Quantity(8))
	assert.Equal(t, 0, c.Quantity(9))

	assert.Equal(t, map[int64]int{7: 5, 8: 1}, c.Quantities())
}

func TestItemLineTotal(t *testing.T) {
	item := Item{ProductID: 1, Quantity: 4, Price: d("2.99")}
	assert.True(t, d("11.96").Equal(item.LineTotal()))
}
