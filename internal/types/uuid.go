package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier with a prefix
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

// GenerateGivenID returns the RFC 4122 id sent to the gateway as given_id.
// The gateway rejects a second payment created with the same given_id.
func GenerateGivenID() string {
	return uuid.NewString()
}

const (
	UUID_PREFIX_BOOKING_PAYMENT = "bpay"
	UUID_PREFIX_SUBSCRIPTION    = "subs"
	UUID_PREFIX_WEBHOOK_EVENT   = "whev"
	UUID_PREFIX_REQUEST         = "req"
)
