package gateway

import "github.com/google/uuid"

// KeyAllocator hands out one fresh idempotency key per creation attempt.
// The same key must never be sent for two different logical intents.
type KeyAllocator interface {
	NewKey() string
}

// UUIDKeyAllocator allocates random version-4 UUIDs. Uniqueness holds under
// concurrent allocation from independent instances without coordination.
type UUIDKeyAllocator struct{}

func (UUIDKeyAllocator) NewKey() string {
	return uuid.NewString()
}
