package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/coupon-manager/internal/domain/cart"
	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

// ApplicableCoupons handles POST /applicable-coupons: it evaluates every
// active coupon against the submitted cart and returns each applicable one
// with its computed discount.
func (h *Handler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applicable, err := h.engine.EvaluateApplicable(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, cart.ErrInvalidCart) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(w, r, err)
		return
	}

	out := applicableCouponsResponse{
		ApplicableCoupons: make([]applicableCoupon, len(applicable)),
	}
	for i, a := range applicable {
		out.ApplicableCoupons[i] = applicableCoupon{
			CouponID: a.Coupon.ID,
			Type:     string(a.Coupon.Type),
			Discount: a.Result.TotalDiscount.Round(2).InexactFloat64(),
			Details:  coupon.EncodeDetails(a.Coupon.Details),
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// ApplyCoupon handles POST /apply-coupon/{id}: it applies one specific coupon
// to the cart. An unknown id maps to 404; a coupon whose conditions the cart
// does not meet maps to 400 with the eligibility reason.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := couponID(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, def, err := h.engine.Apply(r.Context(), id, req.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			respondError(w, http.StatusNotFound, "coupon not found")
		case errors.Is(err, coupon.ErrNotApplicable):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, cart.ErrInvalidCart):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, toApplyResponse(result, def))
}
