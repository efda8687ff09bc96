package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores carts as JSON values with a sliding TTL.
func NewRedis(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *redisRepo) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *redisRepo) Save(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cartKey(cart.UserID), data, r.ttl).Err()
}

func (r *redisRepo) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}
