// Package cart models the shopping cart the coupon engine evaluates against.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCart is returned when a cart contains an item with a non-positive
// quantity or a negative price.
var ErrInvalidCart = errors.New("invalid cart")

// Item is a single cart line: a product, how many units, and the unit price.
// The same product may appear on multiple lines.
type Item struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// LineTotal returns quantity * unit price for this line.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered sequence of items. Order is irrelevant for computation
// but preserved for output. An empty cart is valid input.
type Cart struct {
	Items []Item
}

// Validate checks every line for a positive quantity and a non-negative price.
func (c Cart) Validate() error {
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			return errors.Wrapf(ErrInvalidCart, "product %d: quantity must be greater than 0", item.ProductID)
		}
		if item.Price.IsNegative() {
			return errors.Wrapf(ErrInvalidCart, "product %d: price must not be negative", item.ProductID)
		}
	}
	return nil
}

// TotalPrice returns the sum of line totals across all items.
func (c Cart) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Quantity returns the aggregated quantity of the given product across all
// lines that reference it.
func (c Cart) Quantity(productID int64) int {
	total := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total
}

// Quantities returns a product -> aggregated quantity lookup for the cart.
func (c Cart) Quantities() map[int64]int {
	m := make(map[int64]int, len(c.Items))
	for _, item := range c.Items {
		m[item.ProductID] += item.Quantity
	}
	return m
}
