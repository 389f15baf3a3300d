package testutil

import (
	"context"
	"sync/atomic"

	"github.com/funduq/funduq/internal/postgres"
)

// MockPostgresClient runs callbacks directly. There is no rollback; in-memory
// stores keep whatever was written before an error.
type MockPostgresClient struct {
	txCount        atomic.Int64
	savepointCount atomic.Int64
}

func NewMockPostgresClient() *MockPostgresClient {
	return &MockPostgresClient{}
}

func (c *MockPostgresClient) Querier(context.Context) postgres.Querier {
	return nil
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	c.txCount.Add(1)
	return fn(ctx)
}

func (c *MockPostgresClient) WithSavepoint(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	c.savepointCount.Add(1)
	return fn(ctx)
}

func (c *MockPostgresClient) TxCount() int64 {
	return c.txCount.Load()
}

func (c *MockPostgresClient) SavepointCount() int64 {
	return c.savepointCount.Load()
}

var _ postgres.IClient = (*MockPostgresClient)(nil)
