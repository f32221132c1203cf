package pool_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/timeline/internal/pool"
)

func TestPool(t *testing.T) {
	tests := []struct {
		description string
		size        int
	}{
		{description: "chunk", size: 8820},
		{description: "small", size: 4},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			p := pool.Get(test.size)
			assert.Same(t, p, pool.Get(test.size))
			assert.Equal(t, test.size, p.Size())

			b := p.Alloc()
			assert.Len(t, b, test.size)
			p.Free(b)
			p.Free(make([]byte, test.size+1))
			assert.Len(t, p.Alloc(), test.size)
		})
	}
}

func TestPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := pool.Get(64)
			for j := 0; j < 100; j++ {
				b := p.Alloc()
				b[0] = byte(j)
				p.Free(b)
			}
		}()
	}
	wg.Wait()
}
