package coupon

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Details is the variant-specific payload of a coupon definition. Exactly one
// concrete type exists per coupon Type.
type Details interface {
	// CouponType returns the Type this payload belongs to.
	CouponType() Type
	// Validate checks the payload's field ranges.
	Validate() error

	encode(e *jx.Encoder)
}

// CartWiseDetails configures a cart-wide threshold discount.
type CartWiseDetails struct {
	// Threshold is the minimum cart total required for the coupon to apply.
	Threshold decimal.Decimal
	// DiscountPercent is the percentage taken off the cart total.
	DiscountPercent decimal.Decimal
	// MaxDiscountAmount caps the computed discount when set.
	MaxDiscountAmount *decimal.Decimal
}

func (d CartWiseDetails) CouponType() Type { return TypeCartWise }

func (d CartWiseDetails) Validate() error {
	if d.Threshold.IsNegative() {
		return errors.New("threshold must not be negative")
	}
	if err := validatePercent(d.DiscountPercent); err != nil {
		return err
	}
	return validateCap(d.MaxDiscountAmount)
}

// ProductWiseDetails configures a per-product percentage discount.
type ProductWiseDetails struct {
	ProductID       int64
	DiscountPercent decimal.Decimal
	// MinQuantity is the aggregated quantity of ProductID the cart must hold.
	MinQuantity int
	// MaxDiscountAmount caps the aggregate discount across all matching lines.
	MaxDiscountAmount *decimal.Decimal
}

func (d ProductWiseDetails) CouponType() Type { return TypeProductWise }

func (d ProductWiseDetails) Validate() error {
	if d.ProductID <= 0 {
		return errors.New("product_id must be greater than 0")
	}
	if d.MinQuantity < 1 {
		return errors.New("min_quantity must be at least 1")
	}
	if err := validatePercent(d.DiscountPercent); err != nil {
		return err
	}
	return validateCap(d.MaxDiscountAmount)
}

// ProductQuantity pairs a product with a per-repetition quantity in a bxgy rule.
type ProductQuantity struct {
	ProductID int64
	Quantity  int
}

// BxGyDetails configures a Buy-X-Get-Y rule: once every buy product reaches
// its required multiple, the get products are granted free up to the
// repetition limit.
type BxGyDetails struct {
	BuyProducts     []ProductQuantity
	GetProducts     []ProductQuantity
	RepetitionLimit int
}

func (d BxGyDetails) CouponType() Type { return TypeBxGy }

func (d BxGyDetails) Validate() error {
	if len(d.BuyProducts) == 0 {
		return errors.New("buy_products must not be empty")
	}
	if len(d.GetProducts) == 0 {
		return errors.New("get_products must not be empty")
	}
	if d.RepetitionLimit < 1 {
		return errors.New("repetition_limit must be at least 1")
	}
	for _, p := range append(append([]ProductQuantity{}, d.BuyProducts...), d.GetProducts...) {
		if p.ProductID <= 0 {
			return errors.New("product_id must be greater than 0")
		}
		if p.Quantity < 1 {
			return errors.New("quantity must be at least 1")
		}
	}
	return nil
}

func validatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return errors.New("discount must be between 0 and 100")
	}
	return nil
}

func validateCap(c *decimal.Decimal) error {
	if c != nil && !c.IsPositive() {
		return errors.New("max_discount_amount must be greater than 0")
	}
	return nil
}

// EncodeDetails serializes a details payload to its JSON representation,
// which is also the JSONB storage format.
func EncodeDetails(d Details) []byte {
	var e jx.Encoder
	d.encode(&e)
	return e.Bytes()
}

func (d CartWiseDetails) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("threshold")
	encodeDecimal(e, d.Threshold)
	e.FieldStart("discount")
	encodeDecimal(e, d.DiscountPercent)
	if d.MaxDiscountAmount != nil {
		e.FieldStart("max_discount_amount")
		encodeDecimal(e, *d.MaxDiscountAmount)
	}
	e.ObjEnd()
}

func (d ProductWiseDetails) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Int64(d.ProductID)
	e.FieldStart("discount")
	encodeDecimal(e, d.DiscountPercent)
	e.FieldStart("min_quantity")
	e.Int(d.MinQuantity)
	if d.MaxDiscountAmount != nil {
		e.FieldStart("max_discount_amount")
		encodeDecimal(e, *d.MaxDiscountAmount)
	}
	e.ObjEnd()
}

func (d BxGyDetails) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("buy_products")
	encodeProductQuantities(e, d.BuyProducts)
	e.FieldStart("get_products")
	encodeProductQuantities(e, d.GetProducts)
	e.FieldStart("repetition_limit")
	e.Int(d.RepetitionLimit)
	e.ObjEnd()
}

func encodeProductQuantities(e *jx.Encoder, ps []ProductQuantity) {
	e.ArrStart()
	for _, p := range ps {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Int64(p.ProductID)
		e.FieldStart("quantity")
		e.Int(p.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// DecodeDetails parses a details payload for the declared coupon type and
// validates it. The decoder never reads fields belonging to another variant.
func DecodeDetails(t Type, raw []byte) (Details, error) {
	var (
		d   Details
		err error
	)
	switch t {
	case TypeCartWise:
		d, err = decodeCartWise(raw)
	case TypeProductWise:
		d, err = decodeProductWise(raw)
	case TypeBxGy:
		d, err = decodeBxGy(raw)
	default:
		return nil, errors.Errorf("unsupported coupon type: %q", t)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeCartWise(raw []byte) (CartWiseDetails, error) {
	var out CartWiseDetails
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "threshold":
			return decodeDecimal(d, &out.Threshold)
		// discount_percentage is the legacy key for the same field.
		case "discount", "discount_percentage":
			return decodeDecimal(d, &out.DiscountPercent)
		case "max_discount_amount":
			return decodeOptDecimal(d, &out.MaxDiscountAmount)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return out, errors.Wrap(err, "decode cart-wise details")
	}
	return out, nil
}

func decodeProductWise(raw []byte) (ProductWiseDetails, error) {
	out := ProductWiseDetails{MinQuantity: 1}
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Int64()
			out.ProductID = v
			return err
		case "discount", "discount_percentage":
			return decodeDecimal(d, &out.DiscountPercent)
		case "min_quantity":
			v, err := d.Int()
			out.MinQuantity = v
			return err
		case "max_discount_amount":
			return decodeOptDecimal(d, &out.MaxDiscountAmount)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return out, errors.Wrap(err, "decode product-wise details")
	}
	return out, nil
}

func decodeBxGy(raw []byte) (BxGyDetails, error) {
	var out BxGyDetails
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "buy_products":
			ps, err := decodeProductQuantities(d)
			out.BuyProducts = ps
			return err
		case "get_products":
			ps, err := decodeProductQuantities(d)
			out.GetProducts = ps
			return err
		case "repetition_limit":
			v, err := d.Int()
			out.RepetitionLimit = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return out, errors.Wrap(err, "decode bxgy details")
	}
	return out, nil
}

func decodeProductQuantities(d *jx.Decoder) ([]ProductQuantity, error) {
	var ps []ProductQuantity
	err := d.Arr(func(d *jx.Decoder) error {
		var p ProductQuantity
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product_id":
				v, err := d.Int64()
				p.ProductID = v
				return err
			case "quantity":
				v, err := d.Int()
				p.Quantity = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		ps = append(ps, p)
		return nil
	})
	return ps, err
}

func decodeDecimal(d *jx.Decoder, out *decimal.Decimal) error {
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(strings.Trim(string(n), `"`))
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func decodeOptDecimal(d *jx.Decoder, out **decimal.Decimal) error {
	if d.Next() == jx.Null {
		*out = nil
		return d.Null()
	}
	var v decimal.Decimal
	if err := decodeDecimal(d, &v); err != nil {
		return err
	}
	*out = &v
	return nil
}
