// Package pool shares chunk buffers between playback loops of the same
// chunk size.
package pool

import (
	"sync"
)

var m = struct {
	sync.Mutex
	pools map[int]*Pool
}{
	pools: map[int]*Pool{},
}

// Pool of byte buffers with the same length.
type Pool struct {
	size int
	pool sync.Pool
}

// Get returns the pool of buffers with the size. Pools are created once and
// live for the process lifetime.
func Get(size int) *Pool {
	m.Lock()
	defer m.Unlock()
	if p, ok := m.pools[size]; ok {
		return p
	}

	p := &Pool{size: size}
	p.pool.New = func() interface{} {
		b := make([]byte, size)
		return &b
	}
	m.pools[size] = p
	return p
}

// Size returns length of the buffers.
func (p *Pool) Size() int {
	return p.size
}

// Alloc retrieves a buffer from the pool. Content of the buffer is not
// cleared.
func (p *Pool) Alloc() []byte {
	return *p.pool.Get().(*[]byte)
}

// Free returns the buffer to the pool. Buffers of other size are dropped.
func (p *Pool) Free(b []byte) {
	if len(b) != p.size {
		return
	}
	p.pool.Put(&b)
}
