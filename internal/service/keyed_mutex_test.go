package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  = map[string]int{}
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		key := []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(key)
			mu.Lock()
			inside[key]++
			if inside[key] > maxSeen {
				maxSeen = inside[key]
			}
			mu.Unlock()

			mu.Lock()
			inside[key]--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.locks)
}
