package sim

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// CapacityPool tracks free seats as a counting resource.
//
// The semaphore provides the blocking behaviour; free mirrors its count so
// that callers holding the shop lock can observe occupied+free == size.
type CapacityPool struct {
	sem  *semaphore.Weighted
	size int64
	free atomic.Int64
}

// NewCapacityPool creates a pool with n free seats. Panics if n <= 0.
func NewCapacityPool(n int) *CapacityPool {
	if n <= 0 {
		panic(fmt.Sprintf("NewCapacityPool: size must be > 0, got %d", n))
	}
	p := &CapacityPool{
		sem:  semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}
	p.free.Store(int64(n))
	return p
}

// Acquire blocks until a seat is free and takes it, or returns ctx.Err().
func (p *CapacityPool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.free.Add(-1)
	return nil
}

// TryAcquire takes a seat if one is free without blocking.
func (p *CapacityPool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.free.Add(-1)
	return true
}

// Release returns one seat to the pool, waking at most one blocked Acquire.
// Panics if every seat is already free.
func (p *CapacityPool) Release() {
	if p.free.Load() >= p.size {
		panic("CapacityPool.Release: no seat is held")
	}
	p.free.Add(1)
	p.sem.Release(1)
}

// Free returns the number of free seats.
func (p *CapacityPool) Free() int {
	return int(p.free.Load())
}

// Size returns the total number of seats.
func (p *CapacityPool) Size() int {
	return int(p.size)
}
