// Package coupon implements coupon definitions and the applicability and
// discount-calculation rules for the three supported coupon variants.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon variants.
type Type string

const (
	// TypeCartWise discounts the whole cart once a total-spend threshold is met.
	TypeCartWise Type = "cart-wise"
	// TypeProductWise discounts line items of a specific product, subject to a
	// minimum quantity.
	TypeProductWise Type = "product-wise"
	// TypeBxGy grants free units of designated products when minimum purchase
	// quantities of other designated products are met.
	TypeBxGy Type = "bxgy"
)

// Valid reports whether t is one of the supported coupon types.
func (t Type) Valid() bool {
	switch t {
	case TypeCartWise, TypeProductWise, TypeBxGy:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when a coupon id does not exist in the store.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotApplicable is returned when a discount computation is requested
	// for a coupon whose conditions the cart does not satisfy.
	ErrNotApplicable = errors.New("coupon not applicable")
)

// Definition is a stored coupon. Details always structurally matches the
// declared Type; the rules engine reads it as an immutable snapshot and never
// mutates it.
type Definition struct {
	ID        int64
	Name      string
	Type      Type
	Details   Details
	Active    bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the definition has an expiry in the past relative
// to the given time.
func (d *Definition) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// Filter narrows List results.
type Filter struct {
	// Active, when set, restricts results to coupons with a matching active flag.
	Active *bool
	// Type, when set, restricts results to a single coupon variant.
	Type *Type
	// Limit caps the number of returned rows. Zero means the store default;
	// a negative limit disables the cap.
	Limit int
	// Offset skips the first N rows.
	Offset int
}

// UpdateParams holds the mutable subset of a definition. Nil fields are left
// unchanged.
type UpdateParams struct {
	Name      *string
	Active    *bool
	ExpiresAt *time.Time
}

// Store is the read-side interface the rules engine depends on.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Definition, error)
	List(ctx context.Context, filter Filter) ([]Definition, error)
}

// Repository provides full CRUD over stored coupon definitions.
type Repository interface {
	Store

	Create(ctx context.Context, def *Definition) error
	Update(ctx context.Context, id int64, params UpdateParams) (*Definition, error)
	Delete(ctx context.Context, id int64) error
}

// ApplicationRecorder persists an audit record for each successfully applied
// coupon.
type ApplicationRecorder interface {
	Record(ctx context.Context, couponID int64, discount decimal.Decimal) error
}
