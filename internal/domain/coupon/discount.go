package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-manager/internal/domain/cart"
)

// AppliedItem is a cart line annotated with the discount granted to it.
// Untouched lines carry a zero discount.
type AppliedItem struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// LineTotal returns quantity * unit price before discount.
func (i AppliedItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Application is the result of applying a coupon to a cart. TotalDiscount
// always equals the sum of per-item discounts, and FinalPrice is never
// negative.
type Application struct {
	Items         []AppliedItem
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalPrice    decimal.Decimal
}

// Compute calculates the concrete discount for an applicable coupon. It
// re-checks applicability and returns ErrNotApplicable (wrapping the reason)
// when invoked on an ineligible coupon, so a non-matching coupon is never
// silently applied.
func Compute(def *Definition, c cart.Cart, now time.Time) (*Application, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if ok, reason := IsApplicable(def, c, now); !ok {
		return nil, errors.Wrap(ErrNotApplicable, reason)
	}

	items := make([]AppliedItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = AppliedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Discount:  decimal.Zero,
		}
	}

	switch details := def.Details.(type) {
	case CartWiseDetails:
		applyCartWise(details, items)
	case ProductWiseDetails:
		applyProductWise(details, items)
	case BxGyDetails:
		applyBxGy(details, items)
	default:
		return nil, errors.Errorf("unsupported coupon type: %q", def.Type)
	}

	totalPrice := decimal.Zero
	totalDiscount := decimal.Zero
	for _, item := range items {
		totalPrice = totalPrice.Add(item.LineTotal())
		totalDiscount = totalDiscount.Add(item.Discount)
	}

	finalPrice := totalPrice.Sub(totalDiscount)
	if finalPrice.IsNegative() {
		finalPrice = decimal.Zero
	}

	return &Application{
		Items:         items,
		TotalPrice:    totalPrice,
		TotalDiscount: totalDiscount,
		FinalPrice:    finalPrice,
	}, nil
}

// applyCartWise takes the configured percentage of the cart total, caps it at
// MaxDiscountAmount when set, and distributes the result proportionally
// across all lines.
func applyCartWise(d CartWiseDetails, items []AppliedItem) {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	if total.IsZero() {
		return
	}

	applied := total.Mul(d.DiscountPercent).Div(hundred)
	if d.MaxDiscountAmount != nil {
		applied = decimal.Min(applied, *d.MaxDiscountAmount)
	}
	applied = applied.Round(2)

	indices := make([]int, len(items))
	for i := range items {
		indices[i] = i
	}
	distribute(applied, total, items, indices)
}

// applyProductWise discounts only the lines matching the target product.
// The cap applies to the aggregate across all matching lines, not per line.
func applyProductWise(d ProductWiseDetails, items []AppliedItem) {
	var (
		matching      []int
		matchingTotal = decimal.Zero
	)
	for i, item := range items {
		if item.ProductID == d.ProductID {
			matching = append(matching, i)
			matchingTotal = matchingTotal.Add(item.LineTotal())
		}
	}
	if len(matching) == 0 || matchingTotal.IsZero() {
		return
	}

	raw := matchingTotal.Mul(d.DiscountPercent).Div(hundred)

	if d.MaxDiscountAmount != nil && raw.GreaterThan(*d.MaxDiscountAmount) {
		distribute(d.MaxDiscountAmount.Round(2), matchingTotal, items, matching)
		return
	}

	for _, i := range matching {
		items[i].Discount = items[i].LineTotal().Mul(d.DiscountPercent).Div(hundred).Round(2)
	}
}

// applyBxGy grants free units of the get products for each satisfied
// repetition of the buy bundle. Units already consumed satisfying the buy
// side are not available as free units, so overlapping buy/get products are
// accounted net of consumption.
func applyBxGy(d BxGyDetails, items []AppliedItem) {
	c := cart.Cart{Items: make([]cart.Item, len(items))}
	for i, item := range items {
		c.Items[i] = cart.Item{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	reps := eligibleRepetitions(d, c)
	if reps < 1 {
		return
	}

	quantities := c.Quantities()

	consumed := make(map[int64]int)
	for _, bp := range d.BuyProducts {
		consumed[bp.ProductID] += bp.Quantity * reps
	}

	// Free units per product, capped by cart availability net of buy
	// consumption. A get product absent from the cart contributes nothing.
	granted := make(map[int64]int)
	for _, gp := range d.GetProducts {
		available := quantities[gp.ProductID] - consumed[gp.ProductID] - granted[gp.ProductID]
		if available < 0 {
			available = 0
		}
		free := gp.Quantity * reps
		if free > available {
			free = available
		}
		granted[gp.ProductID] += free
	}

	// Allocate the granted free units onto lines in input order, skipping
	// units consumed by the buy side first.
	buyRemaining := make(map[int64]int, len(consumed))
	for id, n := range consumed {
		buyRemaining[id] = n
	}
	freeRemaining := granted

	for i := range items {
		id := items[i].ProductID

		take := buyRemaining[id]
		if take > items[i].Quantity {
			take = items[i].Quantity
		}
		buyRemaining[id] -= take

		available := items[i].Quantity - take
		free := freeRemaining[id]
		if free > available {
			free = available
		}
		freeRemaining[id] -= free

		if free > 0 {
			items[i].Discount = items[i].Price.Mul(decimal.NewFromInt(int64(free))).Round(2)
		}
	}
}

// distribute splits amount across the given lines proportionally to their
// line totals, rounding each share to two decimal places. Any rounding
// residual lands on the last line so the shares sum exactly to amount.
func distribute(amount, total decimal.Decimal, items []AppliedItem, indices []int) {
	distributed := decimal.Zero
	for n, i := range indices {
		if n == len(indices)-1 {
			items[i].Discount = amount.Sub(distributed)
			return
		}
		share := amount.Mul(items[i].LineTotal()).Div(total).Round(2)
		items[i].Discount = share
		distributed = distributed.Add(share)
	}
}
