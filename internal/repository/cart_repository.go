package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maquirent/rental-api/internal/model"
)

// CartRepo persists per-user shopping carts in Redis.  A cart is one
// JSON document under cart:<user_id>; every mutation rewrites the full
// entry list, and an empty cart removes the key entirely rather than
// storing an empty list.  The store is single-writer per user, so no
// locking is needed beyond Redis's own per-command atomicity.
type CartRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCartRepo returns a CartRepo using the given client.  ttl bounds how
// long an idle cart survives; every write refreshes it.
func NewCartRepo(rdb *redis.Client, ttl time.Duration) *CartRepo {
	return &CartRepo{rdb: rdb, ttl: ttl}
}

func cartKey(userID uint64) string { return fmt.Sprintf("cart:%d", userID) }

// Get loads the user's cart.  A missing key yields an empty cart, never
// an error.  Date fields round-trip through RFC 3339 in the JSON
// document and come back as time.Time.
func (r *CartRepo) Get(ctx context.Context, userID uint64) (*model.Cart, error) {
	raw, err := r.rdb.Get(ctx, cartKey(userID)).Bytes()
	if err == redis.Nil {
		return &model.Cart{Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var cart model.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return &cart, nil
}

// Save serializes the full cart.  An empty cart deletes the key.
func (r *CartRepo) Save(ctx context.Context, userID uint64, cart *model.Cart) error {
	if cart == nil || len(cart.Items) == 0 {
		return r.rdb.Del(ctx, cartKey(userID)).Err()
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, cartKey(userID), raw, r.ttl).Err()
}

// Clear empties the user's cart by removing the key.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
