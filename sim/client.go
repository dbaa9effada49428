// Defines the Client struct that models one customer of the shop.
// Tracks the client's lifecycle and timestamps for wait/turnaround metrics.

package sim

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ClientState represents the lifecycle state of a client.
type ClientState string

const (
	ClientArrived   ClientState = "arrived"
	ClientQueued    ClientState = "queued"
	ClientSeated    ClientState = "seated"
	ClientInService ClientState = "in_service"
	ClientServed    ClientState = "served"
	ClientDone      ClientState = "done"
)

// Client models a single customer. State and timestamps are written under
// the shop lock; the done channel is closed exactly once by the server that
// served the client.
type Client struct {
	ID int // 1..C

	State    ClientState
	ServedBy int // server ID, 0 until service starts

	ArrivedAt  time.Duration // elapsed since run start
	SeatedAt   time.Duration
	StartedAt  time.Duration
	FinishedAt time.Duration

	doneOnce sync.Once
	done     chan struct{}
}

// NewClient creates a client in the arrived state.
func NewClient(id int) *Client {
	return &Client{
		ID:    id,
		State: ClientArrived,
		done:  make(chan struct{}),
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("Client: (ID: %d, State: %s, ServedBy: %d)", c.ID, c.State, c.ServedBy)
}

// Wait blocks until the client's own service has finished, or ctx ends.
func (c *Client) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the client's service has finished.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// finish fulfils the completion signal. A second call panics: a client is
// served exactly once.
func (c *Client) finish() {
	fired := false
	c.doneOnce.Do(func() {
		close(c.done)
		fired = true
	})
	if !fired {
		panic(fmt.Sprintf("client %d finished twice", c.ID))
	}
}
