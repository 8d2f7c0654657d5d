package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/redisx"
)

type OrdersHandler struct {
	Repo  *orders.Repo
	Redis *redis.Client
}

type orderItemResp struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
	Variant    string `json:"variant,omitempty"`
}

type orderResp struct {
	ID            string          `json:"id"`
	Status        orders.Status   `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Currency      string          `json:"currency"`
	SubtotalCents int64           `json:"subtotal_cents"`
	ShippingCents int64           `json:"shipping_cents"`
	TaxCents      int64           `json:"tax_cents"`
	TotalCents    int64           `json:"total_cents"`
	ShippingInfo  json.RawMessage `json:"shipping_info,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []orderItemResp `json:"items"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Put("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, items, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := orderResp{
		ID:            o.ID,
		Status:        o.Status,
		PaymentStatus: string(o.PaymentStatus),
		Currency:      o.Currency,
		SubtotalCents: o.SubtotalCents,
		ShippingCents: o.ShippingCents,
		TaxCents:      o.TaxCents,
		TotalCents:    o.TotalCents,
		ShippingInfo:  o.ShippingInfo,
		CreatedAt:     o.CreatedAt,
		Items:         []orderItemResp{},
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
			Variant:    it.Variant,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Repo.GetStatus(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// updateStatus accepts the fulfillment-driven transition; anything beyond
// validating it is outside this core.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.UpdateStatus(ctx, orderID, orders.Status(req.Status)); err != nil {
		writeErr(w, err)
		return
	}

	// drop the stale cached status
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	writeJSON(w, http.StatusOK, map[string]string{"id": orderID, "status": req.Status})
}
