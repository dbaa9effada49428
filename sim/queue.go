// Implements the OverflowQueue, which holds clients that arrived while every
// seat was taken. Clients leave it strictly in arrival order.

package sim

import (
	"fmt"
	"strings"
)

// OverflowQueue is a FIFO of clients waiting for a seat.
// Not safe for concurrent use; the Shop guards it with its lock.
type OverflowQueue struct {
	queue []*Client
}

// Enqueue adds a client to the back of the queue.
func (q *OverflowQueue) Enqueue(c *Client) {
	if c == nil {
		panic("Enqueue: client must not be nil")
	}
	q.queue = append(q.queue, c)
}

// Len returns the number of clients in the queue.
func (q *OverflowQueue) Len() int {
	return len(q.queue)
}

// Peek returns the client at the head of the queue without removing it.
// Returns nil if the queue is empty.
func (q *OverflowQueue) Peek() *Client {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Dequeue removes and returns the client at the head of the queue.
// Returns nil if the queue is empty.
func (q *OverflowQueue) Dequeue() *Client {
	if len(q.queue) == 0 {
		return nil
	}
	head := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return head
}

// Contains reports whether a client with the given ID is queued.
func (q *OverflowQueue) Contains(id int) bool {
	for _, c := range q.queue {
		if c.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the queued client IDs, head first.
func (q *OverflowQueue) IDs() []int {
	ids := make([]int, len(q.queue))
	for i, c := range q.queue {
		ids[i] = c.ID
	}
	return ids
}

func (q *OverflowQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, c := range q.queue {
		sb.WriteString(fmt.Sprint(c.ID))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
