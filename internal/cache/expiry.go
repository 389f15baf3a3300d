package cache

import "time"

const (
	ExpiryDefaultInMemory = 30 * time.Minute
	ExpiryDefaultRedis    = 5 * time.Minute

	// ExpiryPayment bounds how stale a cached gateway payment can be
	ExpiryPayment = 2 * time.Minute
)
