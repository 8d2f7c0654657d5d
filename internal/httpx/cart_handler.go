package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/metrics"
	"github.com/mkariuki/go-storefront-cart/internal/session"
)

type CartHandler struct {
	Carts   *cart.Service
	Metrics *metrics.Metrics
}

type addLineReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

type setQuantityReq struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addLine)
	r.Put("/cart/items/{lineID}", h.setQuantity)
	r.Delete("/cart/items/{lineID}", h.removeLine)
	r.Delete("/cart", h.clear)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Carts.View(ctx, session.CartID(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id and positive quantity are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cartID := session.CartID(r.Context())
	if _, err := h.Carts.AddLine(ctx, cartID, req.ProductID, req.Variant, req.Quantity); err != nil {
		h.count("add", "error")
		writeErr(w, err)
		return
	}
	h.count("add", "ok")
	h.respondWithView(ctx, w, cartID)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cartID := session.CartID(r.Context())
	if err := h.Carts.SetQuantity(ctx, cartID, chi.URLParam(r, "lineID"), *req.Quantity); err != nil {
		h.count("set_quantity", "error")
		writeErr(w, err)
		return
	}
	h.count("set_quantity", "ok")
	h.respondWithView(ctx, w, cartID)
}

func (h *CartHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cartID := session.CartID(r.Context())
	if err := h.Carts.RemoveLine(ctx, cartID, chi.URLParam(r, "lineID")); err != nil {
		h.count("remove", "error")
		writeErr(w, err)
		return
	}
	h.count("remove", "ok")
	h.respondWithView(ctx, w, cartID)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cartID := session.CartID(r.Context())
	if err := h.Carts.Clear(ctx, cartID); err != nil {
		h.count("clear", "error")
		writeErr(w, err)
		return
	}
	h.count("clear", "ok")
	h.respondWithView(ctx, w, cartID)
}

// respondWithView re-fetches authoritative state after a mutation instead
// of echoing what the caller sent.
func (h *CartHandler) respondWithView(ctx context.Context, w http.ResponseWriter, cartID string) {
	v, err := h.Carts.View(ctx, cartID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) count(op, outcome string) {
	if h.Metrics != nil {
		h.Metrics.CartOps.WithLabelValues(op, outcome).Inc()
	}
}
