package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the view-cache abstraction backing the "available orders" and
// "current order" read views. It is a convenience layer only; the database
// remains the source of truth and every key carries a short TTL.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(operation, key string) string
}

// AvailableOrdersKey is the cached ready-order listing shared by all drivers.
func AvailableOrdersKey(c Cache) string {
	return c.GenerateKey("orders", "available")
}

// DriverCurrentOrderKey is the per-driver current-order view.
func DriverCurrentOrderKey(c Cache, driverID int64) string {
	return c.GenerateKey("driver", fmt.Sprintf("%d:current", driverID))
}

// Noop satisfies Cache without storing anything.
type Noop struct{}

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Get(context.Context, string) (string, error)                   { return "", nil }
func (Noop) Delete(context.Context, ...string) error                       { return nil }
func (Noop) GenerateKey(operation, key string) string {
	return fmt.Sprintf("workflow:%s:%s", operation, key)
}
