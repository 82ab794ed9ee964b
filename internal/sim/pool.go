package sim

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// FramePool recycles position snapshots of a fixed node count.
type FramePool struct {
	pool sync.Pool
	size int
}

func NewFramePool(size int) *FramePool {
	return &FramePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]r3.Vec, size)
			},
		},
	}
}

func (p *FramePool) Get() []r3.Vec {
	return p.pool.Get().([]r3.Vec)
}

func (p *FramePool) Put(s []r3.Vec) {
	if len(s) == p.size {
		for i := range s {
			s[i] = r3.Vec{}
		}
		p.pool.Put(s)
	}
}
