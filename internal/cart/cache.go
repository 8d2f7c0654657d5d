package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mkariuki/go-storefront-cart/internal/redisx"
)

var ErrCacheMiss = errors.New("cart view not in cache")

// ViewCache holds rendered cart views. It is a convenience layer only:
// it is deleted after every mutation and never trusted as source of truth.
type ViewCache interface {
	Get(ctx context.Context, cartID string) (*View, error)
	Set(ctx context.Context, cartID string, v *View) error
	Delete(ctx context.Context, cartID string) error
}

type RedisViewCache struct{ Client *redis.Client }

func (c *RedisViewCache) Get(ctx context.Context, cartID string) (*View, error) {
	s, err := c.Client.Get(ctx, fmt.Sprintf(redisx.KeyCartView, cartID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var v View
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *RedisViewCache) Set(ctx context.Context, cartID string, v *View) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, fmt.Sprintf(redisx.KeyCartView, cartID), b, redisx.TTLCartView).Err()
}

func (c *RedisViewCache) Delete(ctx context.Context, cartID string) error {
	return c.Client.Del(ctx, fmt.Sprintf(redisx.KeyCartView, cartID)).Err()
}
