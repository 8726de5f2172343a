package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

// CreateCoupon handles POST /coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	typ := coupon.Type(req.Type)
	if !typ.Valid() {
		respondError(w, http.StatusBadRequest, "unsupported coupon type: "+req.Type)
		return
	}
	if len(req.Details) == 0 {
		respondError(w, http.StatusBadRequest, "details are required")
		return
	}

	details, err := coupon.DecodeDetails(typ, req.Details)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid details: "+err.Error())
		return
	}

	def := &coupon.Definition{
		Name:      req.Name,
		Type:      typ,
		Details:   details,
		Active:    true,
		ExpiresAt: req.ExpiresAt,
	}
	if err := h.coupons.Create(r.Context(), def); err != nil {
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCouponResponse(def))
}

// ListCoupons handles GET /coupons with optional active_only, limit, and
// offset query parameters.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	filter := coupon.Filter{}
	if r.URL.Query().Get("active_only") == "true" {
		active := true
		filter.Active = &active
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	defs, err := h.coupons.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	out := make([]couponResponse, len(defs))
	for i := range defs {
		out[i] = toCouponResponse(&defs[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetCoupon handles GET /coupons/{id}.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := couponID(w, r)
	if !ok {
		return
	}

	def, err := h.coupons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCouponResponse(def))
}

// UpdateCoupon handles PUT /coupons/{id}. Only name, is_active, and
// expires_at can change; the variant payload is immutable after creation.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := couponID(w, r)
	if !ok {
		return
	}

	var req updateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	def, err := h.coupons.Update(r.Context(), id, coupon.UpdateParams{
		Name:      req.Name,
		Active:    req.IsActive,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCouponResponse(def))
}

// DeleteCoupon handles DELETE /coupons/{id}.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := couponID(w, r)
	if !ok {
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		h.internalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func couponID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid coupon id")
		return 0, false
	}
	return id, true
}
