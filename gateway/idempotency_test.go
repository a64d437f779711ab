package gateway_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonasKash/sok/gateway"
)

func TestUUIDKeyAllocator_DistinctKeys(t *testing.T) {
	alloc := gateway.UUIDKeyAllocator{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := alloc.NewKey()
		assert.NotEmpty(t, key)
		assert.False(t, seen[key], "key %q allocated twice", key)
		seen[key] = true
	}
}

func TestUUIDKeyAllocator_ConcurrentAllocation(t *testing.T) {
	alloc := gateway.UUIDKeyAllocator{}

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := alloc.NewKey()
				mu.Lock()
				seen[key] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
