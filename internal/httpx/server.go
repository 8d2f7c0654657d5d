package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/catalog"
	"github.com/mkariuki/go-storefront-cart/internal/checkout"
	"github.com/mkariuki/go-storefront-cart/internal/metrics"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/stock"
)

func NewRouter(m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	if m != nil {
		r.Use(latency(m))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}

// latency feeds every request's duration into the histogram, labeled with
// the matched route pattern so path parameters don't explode cardinality.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RequestLatency.WithLabelValues(route).
				Observe(float64(time.Since(start)) / float64(time.Millisecond))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the error taxonomy onto status codes. Storage failures are
// fatal to the request; everything else is user-recoverable.
func writeErr(w http.ResponseWriter, err error) {
	var rej *stock.Rejection
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "out of stock", "detail": rej})
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, checkout.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, orders.ErrBadTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
