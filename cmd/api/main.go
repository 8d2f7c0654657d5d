package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/catalog"
	"github.com/mkariuki/go-storefront-cart/internal/checkout"
	"github.com/mkariuki/go-storefront-cart/internal/config"
	"github.com/mkariuki/go-storefront-cart/internal/httpx"
	kafkax "github.com/mkariuki/go-storefront-cart/internal/kafka"
	"github.com/mkariuki/go-storefront-cart/internal/metrics"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/payment"
	"github.com/mkariuki/go-storefront-cart/internal/postgres"
	"github.com/mkariuki/go-storefront-cart/internal/pricing"
	"github.com/mkariuki/go-storefront-cart/internal/redisx"
	"github.com/mkariuki/go-storefront-cart/internal/session"
	"github.com/mkariuki/go-storefront-cart/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	events := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCompleted, 1024)
	events.Start(ctx)
	clears := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicCartClear, 256)
	clears.Start(ctx)

	rules := pricing.Rules{
		TaxRateBPS:            cfg.Pricing.TaxRateBPS,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShippingFee:       cfg.Pricing.FlatShippingFee,
	}

	cats := &catalog.Repo{DB: db}
	store := &cart.PostgresStore{DB: db}
	guard := &stock.Guard{Catalog: cats}
	carts := &cart.Service{
		Store:   store,
		Catalog: cats,
		Guard:   guard,
		Cache:   &cart.RedisViewCache{Client: rdb},
		Rules:   rules,
	}

	orch := &checkout.Orchestrator{
		Checkouts:      &checkout.Repo{DB: db},
		Carts:          store,
		Catalog:        cats,
		Reservations:   &checkout.ReservationRepo{DB: db},
		Payment:        payment.NewHTTPProvider(cfg.PaymentURL),
		Orders:         &orders.Repo{DB: db},
		Events:         events,
		ClearQueue:     clears,
		Rules:          rules,
		Currency:       cfg.Currency,
		ServiceName:    cfg.ServiceName,
		PaymentTimeout: 10 * time.Second,
	}

	m := metrics.New("api")
	resolver := &session.Resolver{
		Store:      store,
		CookieName: cfg.CartCookieName,
		TTL:        cfg.CartCookieTTL,
		Secure:     cfg.CookieSecure,
	}

	router := httpx.NewRouter(m)
	router.Group(func(r chi.Router) {
		r.Use(resolver.Middleware)
		(&httpx.CartHandler{Carts: carts, Metrics: m}).Register(r)
		(&httpx.CheckoutHandler{Orchestrator: orch, Metrics: m}).Register(r)
	})
	(&httpx.OrdersHandler{Repo: &orders.Repo{DB: db}, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	events.Close()
	clears.Close()
	cancel()
	events.WaitClosed()
	clears.WaitClosed()
}
