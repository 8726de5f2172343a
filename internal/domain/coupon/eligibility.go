package coupon

import (
	"fmt"
	"time"

	"github.com/xenking/coupon-manager/internal/domain/cart"
)

// IsApplicable decides whether the coupon's conditions are satisfied by the
// cart at the given evaluation time. Ineligibility is a normal outcome, not an
// error: the second return value carries a human-readable reason when the
// coupon does not apply.
func IsApplicable(def *Definition, c cart.Cart, now time.Time) (bool, string) {
	if !def.Active {
		return false, "coupon is inactive"
	}
	if def.Expired(now) {
		return false, "coupon has expired"
	}

	switch details := def.Details.(type) {
	case CartWiseDetails:
		return cartWiseApplicable(details, c)
	case ProductWiseDetails:
		return productWiseApplicable(details, c)
	case BxGyDetails:
		return bxgyApplicable(details, c)
	default:
		return false, fmt.Sprintf("unsupported coupon type: %q", def.Type)
	}
}

// cartWiseApplicable requires the cart total to reach the threshold.
// Equality counts as applicable.
func cartWiseApplicable(d CartWiseDetails, c cart.Cart) (bool, string) {
	total := c.TotalPrice()
	if total.LessThan(d.Threshold) {
		return false, fmt.Sprintf("cart total %s is below threshold %s", total, d.Threshold)
	}
	return true, ""
}

// productWiseApplicable requires the aggregated quantity of the target
// product, across repeated lines, to reach the minimum.
func productWiseApplicable(d ProductWiseDetails, c cart.Cart) (bool, string) {
	qty := c.Quantity(d.ProductID)
	if qty < d.MinQuantity {
		return false, fmt.Sprintf("product %d quantity %d is below minimum %d", d.ProductID, qty, d.MinQuantity)
	}
	return true, ""
}

// bxgyApplicable requires the buy side to be satisfiable at least once.
// Presence of the get products in the cart is not required: the calculator
// grants free units only where stock allows, which may be zero.
func bxgyApplicable(d BxGyDetails, c cart.Cart) (bool, string) {
	if eligibleRepetitions(d, c) < 1 {
		return false, "buy conditions are not met"
	}
	return true, ""
}

// eligibleRepetitions returns how many times the buy bundle is satisfied,
// capped by the coupon's repetition limit. Every buy product must reach its
// required multiple; the binding product determines the count.
func eligibleRepetitions(d BxGyDetails, c cart.Cart) int {
	quantities := c.Quantities()

	reps := -1
	for _, bp := range d.BuyProducts {
		if bp.Quantity < 1 {
			continue
		}
		r := quantities[bp.ProductID] / bp.Quantity
		if reps < 0 || r < reps {
			reps = r
		}
	}
	if reps < 0 {
		return 0
	}
	if reps > d.RepetitionLimit {
		reps = d.RepetitionLimit
	}
	return reps
}
