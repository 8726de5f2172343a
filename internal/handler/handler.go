// Package handler exposes the coupon service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
)

// Handler serves the coupon CRUD and application endpoints, delegating
// business logic to the injected repository and rules engine.
type Handler struct {
	coupons coupon.Repository
	engine  *coupon.Engine
}

// New constructs a Handler with the required domain dependencies.
func New(coupons coupon.Repository, engine *coupon.Engine) *Handler {
	return &Handler{
		coupons: coupons,
		engine:  engine,
	}
}

// Routes returns the HTTP router with all coupon endpoints registered.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.CreateCoupon)
		r.Get("/", h.ListCoupons)
		r.Get("/{id}", h.GetCoupon)
		r.Put("/{id}", h.UpdateCoupon)
		r.Delete("/{id}", h.DeleteCoupon)
	})
	r.Post("/applicable-coupons", h.ApplicableCoupons)
	r.Post("/apply-coupon/{id}", h.ApplyCoupon)

	return r
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status code is already written. Encoding of our own
	// response types cannot fail.
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}
