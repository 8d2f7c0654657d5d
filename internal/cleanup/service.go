package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	kafkax "github.com/mkariuki/go-storefront-cart/internal/kafka"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/redisx"
)

// Service drains the cart.clear topic: clears that failed right after a
// successful checkout are retried here. Clear is idempotent, so replays
// and duplicates are harmless; the dedup key just keeps the log quiet.
type Service struct {
	Store       cart.Store
	Redis       *redis.Client
	ServiceName string
}

// HandleCartClear is installed as the consumer handler. Returning an error
// leaves the offset uncommitted so the clear is retried.
func (s *Service) HandleCartClear(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventCartClear {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.CartClearPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Store.Clear(ctx, p.CartID); err != nil {
		return err
	}
	log.Printf("cleared cart %s for order %s", p.CartID, p.OrderID)

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}
