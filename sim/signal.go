package sim

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ReadySignal is the "client ready" counter: clients post once they are
// seated, servers wait on it before claiming a seat. It starts at zero.
//
// It is built on a weighted semaphore drained at construction, so a Post is a
// Release and a Wait is an Acquire. max bounds the number of outstanding
// posts; with one post per seated-but-unclaimed client, the seat count is the
// natural bound.
type ReadySignal struct {
	sem     *semaphore.Weighted
	max     int64
	pending atomic.Int64
}

// NewReadySignal creates a signal that tolerates up to max pending posts.
// Panics if max <= 0.
func NewReadySignal(max int) *ReadySignal {
	if max <= 0 {
		panic(fmt.Sprintf("NewReadySignal: max must be > 0, got %d", max))
	}
	sem := semaphore.NewWeighted(int64(max))
	sem.TryAcquire(int64(max))
	return &ReadySignal{sem: sem, max: int64(max)}
}

// Post increments the counter and wakes at most one waiter.
// Panics if more than max posts are outstanding.
func (s *ReadySignal) Post() {
	if s.pending.Add(1) > s.max {
		panic(fmt.Sprintf("ReadySignal.Post: more than %d pending posts", s.max))
	}
	s.sem.Release(1)
}

// Wait blocks until a post is available and consumes it, or returns ctx.Err().
func (s *ReadySignal) Wait(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	s.pending.Add(-1)
	return nil
}

// Pending returns the number of posts not yet consumed.
func (s *ReadySignal) Pending() int {
	return int(s.pending.Load())
}
