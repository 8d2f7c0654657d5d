package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/cleanup"
	"github.com/mkariuki/go-storefront-cart/internal/config"
	kafkax "github.com/mkariuki/go-storefront-cart/internal/kafka"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/postgres"
	"github.com/mkariuki/go-storefront-cart/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &cleanup.Service{
		Store:       &cart.PostgresStore{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("CLEANUP_GROUP", "cart-cleanup")
	workers := mustAtoi(os.Getenv("CLEANUP_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicCartClear, workers)

	go func() {
		log.Printf("cleanup consumer started: group=%s topic=%s workers=%d", group, orders.TopicCartClear, workers)
		if err := cons.Start(ctx, svc.HandleCartClear); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
