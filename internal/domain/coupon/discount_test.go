package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coupon-manager/internal/domain/cart"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name         string
		def          *Definition
		cart         cart.Cart
		wantDiscount decimal.Decimal
		wantFinal    decimal.Decimal
		// wantItemDiscounts, when set, checks per-line discounts in cart order.
		wantItemDiscounts []decimal.Decimal
	}{
		{
			name: "cart-wise percentage off total",
			def:  activeDef(TypeCartWise, CartWiseDetails{Threshold: d("100"), DiscountPercent: d("10")}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 2, Price: d("60")},
				{ProductID: 2, Quantity: 1, Price: d("80")},
			}},
			wantDiscount:      d("20"),
			wantFinal:         d("180"),
			wantItemDiscounts: []decimal.Decimal{d("12"), d("8")},
		},
		{
			name: "cart-wise discount capped at max amount",
			def: activeDef(TypeCartWise, CartWiseDetails{
				Threshold:         d("100"),
				DiscountPercent:   d("10"),
				MaxDiscountAmount: dp("5"),
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 1, Price: d("120")},
			}},
			wantDiscount: d("5"),
			wantFinal:    d("115"),
		},
		{
			name: "product-wise discounts only matching lines",
			def:  activeDef(TypeProductWise, ProductWiseDetails{ProductID: 1, DiscountPercent: d("20"), MinQuantity: 2}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 2, Price: d("50")},
				{ProductID: 2, Quantity: 1, Price: d("30")},
			}},
			wantDiscount:      d("20"),
			wantFinal:         d("110"),
			wantItemDiscounts: []decimal.Decimal{d("20"), d("0")},
		},
		{
			name: "product-wise discounts repeated lines independently",
			def:  activeDef(TypeProductWise, ProductWiseDetails{ProductID: 1, DiscountPercent: d("10"), MinQuantity: 1}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 1, Price: d("40")},
				{ProductID: 1, Quantity: 2, Price: d("30")},
			}},
			wantDiscount:      d("10"),
			wantFinal:         d("90"),
			wantItemDiscounts: []decimal.Decimal{d("4"), d("6")},
		},
		{
			name: "product-wise cap applies across matching lines",
			def: activeDef(TypeProductWise, ProductWiseDetails{
				ProductID:         1,
				DiscountPercent:   d("50"),
				MinQuantity:       1,
				MaxDiscountAmount: dp("30"),
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 1, Price: d("60")},
				{ProductID: 1, Quantity: 1, Price: d("60")},
			}},
			wantDiscount:      d("30"),
			wantFinal:         d("90"),
			wantItemDiscounts: []decimal.Decimal{d("15"), d("15")},
		},
		{
			name: "bxgy grants free units of get product",
			def: activeDef(TypeBxGy, BxGyDetails{
				BuyProducts:     []ProductQuantity{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 3}},
				GetProducts:     []ProductQuantity{{ProductID: 3, Quantity: 1}},
				RepetitionLimit: 2,
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 6, Price: d("10")},
				{ProductID: 2, Quantity: 3, Price: d("15")},
				{ProductID: 3, Quantity: 2, Price: d("25")},
			}},
			wantDiscount:      d("25"),
			wantFinal:         d("130"),
			wantItemDiscounts: []decimal.Decimal{d("0"), d("0"), d("25")},
		},
		{
			name: "bxgy repetitions capped by limit",
			def: activeDef(TypeBxGy, BxGyDetails{
				BuyProducts:     []ProductQuantity{{ProductID: 1, Quantity: 2}},
				GetProducts:     []ProductQuantity{{ProductID: 2, Quantity: 1}},
				RepetitionLimit: 2,
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 10, Price: d("10")},
				{ProductID: 2, Quantity: 5, Price: d("8")},
			}},
			wantDiscount:      d("16"),
			wantFinal:         d("124"),
			wantItemDiscounts: []decimal.Decimal{d("0"), d("16")},
		},
		{
			name: "bxgy free units capped by cart stock",
			def: activeDef(TypeBxGy, BxGyDetails{
				BuyProducts:     []ProductQuantity{{ProductID: 1, Quantity: 2}},
				GetProducts:     []ProductQuantity{{ProductID: 2, Quantity: 2}},
				RepetitionLimit: 3,
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 6, Price: d("10")},
				{ProductID: 2, Quantity: 1, Price: d("8")},
			}},
			wantDiscount:      d("8"),
			wantFinal:         d("60"),
			wantItemDiscounts: []decimal.Decimal{d("0"), d("8")},
		},
		{
			name: "bxgy applicable with zero discount when get product absent",
			def: activeDef(TypeBxGy, BxGyDetails{
				BuyProducts:     []ProductQuantity{{ProductID: 1, Quantity: 2}},
				GetProducts:     []ProductQuantity{{ProductID: 2, Quantity: 1}},
				RepetitionLimit: 3,
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 6, Price: d("10")},
			}},
			wantDiscount:      d("0"),
			wantFinal:         d("60"),
			wantItemDiscounts: []decimal.Decimal{d("0")},
		},
		{
			name: "bxgy same product on buy and get side accounted net",
			def: activeDef(TypeBxGy, BxGyDetails{
				BuyProducts:     []ProductQuantity{{ProductID: 1, Quantity: 2}},
				GetProducts:     []ProductQuantity{{ProductID: 1, Quantity: 1}},
				RepetitionLimit: 2,
			}),
			cart: cart.Cart{Items: []cart.Item{
				{ProductID: 1, Quantity: 5, Price: d("10")},
			}},
			// 2 repetitions consume 4 units; one unit remains to be granted free.
			wantDiscount:      d("10"),
			wantFinal:         d("40"),
			wantItemDiscounts: []decimal.Decimal{d("10")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.def, tt.cart, testNow)
			require.NoError(t, err)

			assert.True(t, tt.wantDiscount.Equal(got.TotalDiscount),
				"expected discount %s, got %s", tt.wantDiscount, got.TotalDiscount)
			assert.True(t, tt.wantFinal.Equal(got.FinalPrice),
				"expected final price %s, got %s", tt.wantFinal, got.FinalPrice)
			assert.True(t, got.TotalPrice.Sub(got.TotalDiscount).Equal(got.FinalPrice))

			require.Len(t, got.Items, len(tt.cart.Items))
			for i, item := range got.Items {
				assert.Equal(t, tt.cart.Items[i].ProductID, item.ProductID)
				assert.Equal(t, tt.cart.Items[i].Quantity, item.Quantity)
			}

			if tt.wantItemDiscounts != nil {
				for i, want := range tt.wantItemDiscounts {
					assert.True(t, want.Equal(got.Items[i].Discount),
						"item %d: expected discount %s, got %s", i, want, got.Items[i].Discount)
				}
			}

			// Per-item discounts always sum exactly to the total.
			sum := decimal.Zero
			for _, item := range got.Items {
				sum = sum.Add(item.Discount)
			}
			assert.True(t, sum.Equal(got.TotalDiscount),
				"item discounts sum %s, total %s", sum, got.TotalDiscount)
		})
	}
}

func TestComputeRoundingResidualLandsOnLastLine(t *testing.T) {
	// 10% of 0.99, split over three lines of 0.33 each: the exact shares do
	// not round to the total, so the last line absorbs the residual.
	def := activeDef(TypeCartWise, CartWiseDetails{Threshold: d("0"), DiscountPercent: d("10")})
	c := cart.Cart{Items: []cart.Item{
		{ProductID: 1, Quantity: 1, Price: d("0.33")},
		{ProductID: 2, Quantity: 1, Price: d("0.33")},
		{ProductID: 3, Quantity: 1, Price: d("0.33")},
	}}

	got, err := Compute(def, c, testNow)
	require.NoError(t, err)

	assert.True(t, d("0.1").Equal(got.TotalDiscount), "got %s", got.TotalDiscount)

	sum := decimal.Zero
	for _, item := range got.Items {
		sum = sum.Add(item.Discount)
	}
	assert.True(t, sum.Equal(got.TotalDiscount))
}

func TestComputeZeroTotalCart(t *testing.T) {
	def := activeDef(TypeCartWise, CartWiseDetails{Threshold: d("0"), DiscountPercent: d("10")})
	c := cart.Cart{Items: []cart.Item{{ProductID: 1, Quantity: 1, Price: d("0")}}}

	got, err := Compute(def, c, testNow)
	require.NoError(t, err)

	assert.True(t, got.TotalDiscount.IsZero())
	assert.True(t, got.FinalPrice.IsZero())
}

func TestComputeNotApplicable(t *testing.T) {
	def := activeDef(TypeCartWise, CartWiseDetails{Threshold: d("100"), DiscountPercent: d("10")})
	c := cart.Cart{Items: []cart.Item{{ProductID: 1, Quantity: 1, Price: d("50")}}}

	_, err := Compute(def, c, testNow)
	require.ErrorIs(t, err, ErrNotApplicable)
	assert.Contains(t, err.Error(), "below threshold")
}

func TestComputeInvalidCart(t *testing.T) {
	def := activeDef(TypeCartWise, CartWiseDetails{Threshold: d("0"), DiscountPercent: d("10")})
	c := cart.Cart{Items: []cart.Item{{ProductID: 1, Quantity: 0, Price: d("50")}}}

	_, err := Compute(def, c, testNow)
	require.ErrorIs(t, err, cart.ErrInvalidCart)
}
