package sim

import (
	"fmt"
	"sync"
)

// CompletionCounter counts finished services. It has its own lock,
// independent of the shop lock, and closes Done when it reaches its target.
type CompletionCounter struct {
	mu     sync.Mutex
	value  int
	target int
	done   chan struct{}
}

// NewCompletionCounter creates a counter that completes after target increments.
func NewCompletionCounter(target int) *CompletionCounter {
	if target <= 0 {
		panic(fmt.Sprintf("NewCompletionCounter: target must be > 0, got %d", target))
	}
	return &CompletionCounter{target: target, done: make(chan struct{})}
}

// Increment records one finished service and returns the new value.
// Panics if the counter would exceed its target.
func (c *CompletionCounter) Increment() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value >= c.target {
		panic(fmt.Sprintf("CompletionCounter: more than %d services completed", c.target))
	}
	c.value++
	if c.value == c.target {
		close(c.done)
	}
	return c.value
}

// Value returns the number of finished services.
func (c *CompletionCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Target returns the number of services the counter waits for.
func (c *CompletionCounter) Target() int {
	return c.target
}

// Done returns a channel closed once Value reaches Target.
func (c *CompletionCounter) Done() <-chan struct{} {
	return c.done
}
