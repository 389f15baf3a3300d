package testutil

import (
	"context"

	"github.com/funduq/funduq/internal/types"
)

// SetupContext returns a context carrying a fresh request id
func SetupContext() context.Context {
	return types.SetRequestID(context.Background(), types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
}
