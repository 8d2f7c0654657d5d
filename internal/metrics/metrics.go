package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	CartOps         *prometheus.CounterVec
	CheckoutSubmits *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

func New(service string) *Metrics {
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	submits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "checkout_submits_total",
		Help:      "Checkout submissions by terminal outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(cartOps, submits, latency)
	return &Metrics{CartOps: cartOps, CheckoutSubmits: submits, RequestLatency: latency}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
