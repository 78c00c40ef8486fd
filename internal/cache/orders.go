package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stitchnet/stitchnet-api/internal/models"
)

const openOrdersKey = "orders:open"
const openOrdersTTL = 30 * time.Second

// NewRedis creates the Redis client, or returns nil when no address is
// configured; callers treat a nil cache as a miss.
func NewRedis(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}

// GetOpenOrders returns the cached open-order listing, or false on any
// miss or decode failure.
func GetOpenOrders(ctx context.Context, rdb *redis.Client) ([]models.Order, bool) {
	if rdb == nil {
		return nil, false
	}
	raw, err := rdb.Get(ctx, openOrdersKey).Result()
	if err != nil {
		return nil, false
	}
	var orders []models.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, false
	}
	return orders, true
}

func SetOpenOrders(ctx context.Context, rdb *redis.Client, orders []models.Order) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, openOrdersKey, raw, openOrdersTTL).Err(); err != nil {
		log.Printf("cache: set open orders: %v", err)
	}
}

// InvalidateOpenOrders drops the listing after any write that changes
// which orders are open.
func InvalidateOpenOrders(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, openOrdersKey).Err(); err != nil {
		log.Printf("cache: invalidate open orders: %v", err)
	}
}
