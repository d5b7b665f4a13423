package recordio

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffledReaderIsSafeForConcurrentWorkers(t *testing.T) {
	n := 50
	records := make([]Record, n)
	r := NewShuffledReader(records, rand.New(rand.NewSource(3)))

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, ok := r.Next()
				if !ok {
					return
				}
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, n, count)
}
