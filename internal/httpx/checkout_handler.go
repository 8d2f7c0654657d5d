package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkariuki/go-storefront-cart/internal/checkout"
	"github.com/mkariuki/go-storefront-cart/internal/metrics"
	"github.com/mkariuki/go-storefront-cart/internal/session"
)

type CheckoutHandler struct {
	Orchestrator *checkout.Orchestrator
	Metrics      *metrics.Metrics
}

type checkoutResp struct {
	CheckoutID string          `json:"checkout_id"`
	CartID     string          `json:"cart_id"`
	State      checkout.State  `json:"state"`
	OrderID    string          `json:"order_id,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Attempt    int             `json:"attempt"`
	Shipping   json.RawMessage `json:"shipping,omitempty"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.start)
	r.Get("/checkout/{id}", h.get)
	r.Put("/checkout/{id}/shipping", h.shipping)
	r.Put("/checkout/{id}/payment", h.payment)
	r.Post("/checkout/{id}/submit", h.submit)
}

func toResp(c checkout.Checkout) checkoutResp {
	return checkoutResp{
		CheckoutID: c.ID,
		CartID:     c.CartID,
		State:      c.State,
		OrderID:    c.OrderID,
		Reason:     c.FailureReason,
		Attempt:    c.Attempt,
		Shipping:   c.ShippingInfo,
	}
}

func (h *CheckoutHandler) start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Orchestrator.Start(ctx, session.CartID(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResp(c))
}

func (h *CheckoutHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Orchestrator.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(c))
}

func (h *CheckoutHandler) shipping(w http.ResponseWriter, r *http.Request) {
	var info json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil || len(strings.TrimSpace(string(info))) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shipping document required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Orchestrator.CaptureShipping(ctx, id, info); err != nil {
		writeErr(w, err)
		return
	}
	h.respondWithCheckout(ctx, w, id)
}

func (h *CheckoutHandler) payment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Orchestrator.CapturePayment(ctx, id); err != nil {
		writeErr(w, err)
		return
	}
	h.respondWithCheckout(ctx, w, id)
}

func (h *CheckoutHandler) submit(w http.ResponseWriter, r *http.Request) {
	// submission covers the payment call, so it gets a longer budget than
	// the plain store operations
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.Orchestrator.Submit(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.count("error")
		writeErr(w, err)
		return
	}
	h.count(strings.ToLower(string(res.State)))

	code := http.StatusOK
	if res.State == checkout.StateFailed {
		code = http.StatusConflict
	}
	writeJSON(w, code, res)
}

func (h *CheckoutHandler) respondWithCheckout(ctx context.Context, w http.ResponseWriter, id string) {
	c, err := h.Orchestrator.Get(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(c))
}

func (h *CheckoutHandler) count(outcome string) {
	if h.Metrics != nil {
		h.Metrics.CheckoutSubmits.WithLabelValues(outcome).Inc()
	}
}
