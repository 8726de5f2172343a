package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-manager/internal/domain/cart"
	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

// Wire types. Money travels as JSON numbers (float64) and is converted to
// decimals at this boundary; all computation stays decimal.

type createCouponRequest struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Details   json.RawMessage `json:"details"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

type updateCouponRequest struct {
	Name      *string    `json:"name,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type couponResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Details   json.RawMessage `json:"details"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt *time.Time      `json:"expires_at"`
}

type cartItemRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type cartRequest struct {
	Cart struct {
		Items []cartItemRequest `json:"items"`
	} `json:"cart"`
}

type cartItemResponse struct {
	ProductID     int64   `json:"product_id"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	TotalDiscount float64 `json:"total_discount"`
}

type updatedCartResponse struct {
	Items []cartItemResponse `json:"items"`
}

type applicableCoupon struct {
	CouponID int64           `json:"coupon_id"`
	Type     string          `json:"type"`
	Discount float64         `json:"discount"`
	Details  json.RawMessage `json:"details"`
}

type applicableCouponsResponse struct {
	ApplicableCoupons []applicableCoupon `json:"applicable_coupons"`
}

type applyCouponResponse struct {
	UpdatedCart   updatedCartResponse `json:"updated_cart"`
	TotalPrice    float64             `json:"total_price"`
	TotalDiscount float64             `json:"total_discount"`
	FinalPrice    float64             `json:"final_price"`
	AppliedCoupon couponResponse      `json:"applied_coupon"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r cartRequest) toDomain() cart.Cart {
	items := make([]cart.Item, len(r.Cart.Items))
	for i, item := range r.Cart.Items {
		items[i] = cart.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     decimal.NewFromFloat(item.Price),
		}
	}
	return cart.Cart{Items: items}
}

func toCouponResponse(def *coupon.Definition) couponResponse {
	return couponResponse{
		ID:        def.ID,
		Name:      def.Name,
		Type:      string(def.Type),
		Details:   coupon.EncodeDetails(def.Details),
		IsActive:  def.Active,
		CreatedAt: def.CreatedAt,
		ExpiresAt: def.ExpiresAt,
	}
}

func toApplyResponse(app *coupon.Application, def *coupon.Definition) applyCouponResponse {
	items := make([]cartItemResponse, len(app.Items))
	for i, item := range app.Items {
		items[i] = cartItemResponse{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         item.Price.InexactFloat64(),
			TotalDiscount: item.Discount.InexactFloat64(),
		}
	}
	return applyCouponResponse{
		UpdatedCart:   updatedCartResponse{Items: items},
		TotalPrice:    app.TotalPrice.Round(2).InexactFloat64(),
		TotalDiscount: app.TotalDiscount.Round(2).InexactFloat64(),
		FinalPrice:    app.FinalPrice.Round(2).InexactFloat64(),
		AppliedCoupon: toCouponResponse(def),
	}
}
