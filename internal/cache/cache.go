package cache

import (
	"context"
	"time"
)

// Cache is a best effort key value cache. Misses and backend errors both
// report false; callers fall through to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Flush(ctx context.Context)
}

// Key prefixes
const (
	PrefixPayment = "moyasar:payment:"
)

// PaymentKey is the cache key of a gateway payment
func PaymentKey(paymentID string) string {
	return PrefixPayment + paymentID
}
