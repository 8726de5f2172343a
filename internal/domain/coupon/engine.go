package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/coupon-manager/internal/domain/cart"
)

// Applicable pairs a coupon with the discount it would produce for a cart.
type Applicable struct {
	Coupon Definition
	Result *Application
}

// Engine evaluates stored coupons against carts. Each evaluation is a pure
// function of the coupon and cart snapshots; the engine holds no mutable
// state of its own.
type Engine struct {
	store    Store
	recorder ApplicationRecorder
	now      func() time.Time
}

// NewEngine creates an Engine backed by the given store. The recorder is
// optional; when non-nil, every successful Apply writes an audit record.
func NewEngine(store Store, recorder ApplicationRecorder) *Engine {
	return &Engine{
		store:    store,
		recorder: recorder,
		now:      time.Now,
	}
}

// EvaluateApplicable returns every active coupon whose conditions the cart
// satisfies, each with its computed discount, in store order. Ineligible
// coupons are filtered silently; no coupon is dropped because another one
// also applies, and a computed discount of zero does not disqualify a coupon.
func (e *Engine) EvaluateApplicable(ctx context.Context, c cart.Cart) ([]Applicable, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// The negative limit disables store paging: the scan must see every
	// active coupon, not just the first page.
	active := true
	defs, err := e.store.List(ctx, Filter{Active: &active, Limit: -1})
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}

	now := e.now()
	applicable := make([]Applicable, 0, len(defs))
	for _, def := range defs {
		if ok, _ := IsApplicable(&def, c, now); !ok {
			continue
		}
		result, err := Compute(&def, c, now)
		if err != nil {
			return nil, errors.Wrapf(err, "compute discount for coupon %d", def.ID)
		}
		applicable = append(applicable, Applicable{Coupon: def, Result: result})
	}
	return applicable, nil
}

// Apply computes the discount of a specific coupon for the cart. It returns
// ErrNotFound for an unknown coupon id and ErrNotApplicable (with the
// eligibility reason) when the cart does not satisfy the coupon's conditions.
func (e *Engine) Apply(ctx context.Context, id int64, c cart.Cart) (*Application, *Definition, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	def, err := e.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrapf(err, "get coupon %d", id)
	}

	now := e.now()
	if ok, reason := IsApplicable(def, c, now); !ok {
		return nil, nil, errors.Wrap(ErrNotApplicable, reason)
	}

	result, err := Compute(def, c, now)
	if err != nil {
		return nil, nil, err
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, def.ID, result.TotalDiscount); err != nil {
			return nil, nil, errors.Wrap(err, "record application")
		}
	}

	return result, def, nil
}
