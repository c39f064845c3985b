package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb     *redis.Client
	cartTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, cartTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, cartTTL: cartTTL}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(deviceID string) string {
	return fmt.Sprintf("cart:device:%s", deviceID)
}

// GetCart loads the cart for a device. A missing key yields an empty cart.
func (c *Client) GetCart(ctx context.Context, deviceID string) (*models.Cart, error) {
	data, err := c.rdb.Get(ctx, cartKey(deviceID)).Result()
	if err == redis.Nil {
		return &models.Cart{DeviceID: deviceID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &cart, nil
}

// SaveCart writes the full cart back under the device key.
func (c *Client) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	return c.rdb.Set(ctx, cartKey(cart.DeviceID), data, c.cartTTL).Err()
}

// DeleteCart removes the cart for a device
func (c *Client) DeleteCart(ctx context.Context, deviceID string) error {
	return c.rdb.Del(ctx, cartKey(deviceID)).Err()
}

// AcquireLock acquires a distributed lock. Used to keep two concurrent
// completions of the same session from racing ahead of the DB constraint.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
