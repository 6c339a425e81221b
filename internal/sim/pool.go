package sim

import (
	"sync"

	"github.com/san-kum/nbodyquad/internal/barneshut"
)

// QueuePool recycles traversal stacks of one fixed capacity.
type QueuePool struct {
	pool sync.Pool
	size int
}

func NewQueuePool(capacity int) *QueuePool {
	return &QueuePool{
		size: capacity,
		pool: sync.Pool{
			New: func() interface{} {
				return barneshut.NewWorkQueue(capacity)
			},
		},
	}
}

func (p *QueuePool) Get() *barneshut.WorkQueue {
	return p.pool.Get().(*barneshut.WorkQueue)
}

func (p *QueuePool) Put(q *barneshut.WorkQueue) {
	if q.Cap() == p.size {
		q.Reset()
		p.pool.Put(q)
	}
}

// GetN returns n stacks, one per worker.
func (p *QueuePool) GetN(n int) []*barneshut.WorkQueue {
	qs := make([]*barneshut.WorkQueue, n)
	for i := range qs {
		qs[i] = p.Get()
	}
	return qs
}

func (p *QueuePool) PutAll(qs []*barneshut.WorkQueue) {
	for _, q := range qs {
		p.Put(q)
	}
}
