package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Snapshot is a consistent view of the shop state, taken under the shop lock.
type Snapshot struct {
	Seats     int   // N
	Occupied  int   // seated + in service
	Free      int   // capacity pool count
	Queued    []int // overflow queue, head first
	Seated    []int // seated and unclaimed, in seating order
	InService []int // claimed by a server, ascending
	Completed int   // completion counter value
}

// Observer is called with a Snapshot after every shop mutation, while the
// shop lock is held. It must not call back into the Shop.
type Observer func(Snapshot)

// Shop owns all state shared between servers and clients.
//
// Lock discipline:
//   - mu guards seats, queue and closed, and serializes every capacity pool
//     TryAcquire/Release so that occupied+free == N holds whenever mu is free.
//   - completed has its own lock and is never held while taking mu.
//   - ready has its own synchronization and is never waited on under mu.
type Shop struct {
	mu        sync.Mutex
	seatFreed *sync.Cond // broadcast whenever a seat is vacated or the shop closes
	seats     *SeatRegistry
	queue     *OverflowQueue
	closed    bool

	pool      *CapacityPool
	ready     *ReadySignal
	completed *CompletionCounter

	sink     Sink
	stamp    *Stamper
	observer Observer
}

// NewShop creates a shop with the given seat count that expects clients
// services in total. Events are stamped with stamp and sent to sink.
func NewShop(seats, clients int, sink Sink, stamp *Stamper, observer Observer) *Shop {
	if sink == nil {
		panic("NewShop: sink must not be nil")
	}
	if stamp == nil {
		panic("NewShop: stamp must not be nil")
	}
	s := &Shop{
		seats:     NewSeatRegistry(seats),
		queue:     &OverflowQueue{},
		pool:      NewCapacityPool(seats),
		ready:     NewReadySignal(seats),
		completed: NewCompletionCounter(clients),
		sink:      sink,
		stamp:     stamp,
		observer:  observer,
	}
	s.seatFreed = sync.NewCond(&s.mu)
	return s
}

// CloseOn closes the shop when ctx is done. Closing wakes every queued
// client, which then returns from Admit with an error. The returned function
// detaches the hook.
func (s *Shop) CloseOn(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, s.close)
}

func (s *Shop) close() {
	s.mu.Lock()
	s.closed = true
	s.seatFreed.Broadcast()
	s.mu.Unlock()
}

// Admit runs the admission protocol for one arriving client and returns once
// that client has been served.
//
// A client sits down at once if a seat is free and nobody is queued ahead of
// it. Otherwise it joins the overflow queue and waits on seatFreed until it
// is the queue head and a seat is free. Once seated it posts the ready
// signal and blocks on its own completion signal.
func (s *Shop) Admit(ctx context.Context, c *Client) error {
	s.mu.Lock()
	c.ArrivedAt = s.stamp.Since()
	if s.closed {
		s.mu.Unlock()
		return errShopClosed
	}

	if s.queue.Len() == 0 && s.pool.TryAcquire() {
		s.sitLocked(c)
		logrus.Debugf("client %d seated on arrival, occupied=%d", c.ID, s.seats.Occupied())
		s.emitLocked(Event{Kind: EventSeated, ClientID: c.ID, Occupied: s.seats.Occupied()})
	} else {
		c.State = ClientQueued
		s.queue.Enqueue(c)
		logrus.Debugf("client %d queued, queue=%s", c.ID, s.queue)
		s.emitLocked(Event{Kind: EventQueued, ClientID: c.ID, QueueLen: s.queue.Len()})

		for {
			if s.closed {
				s.mu.Unlock()
				return errShopClosed
			}
			if s.queue.Peek() == c && s.pool.TryAcquire() {
				break
			}
			s.seatFreed.Wait()
		}
		s.queue.Dequeue()
		s.sitLocked(c)
		logrus.Debugf("client %d promoted from queue, occupied=%d", c.ID, s.seats.Occupied())
		s.emitLocked(Event{Kind: EventPromoted, ClientID: c.ID, Occupied: s.seats.Occupied()})
		// More than one seat may have been freed; let the new head look.
		s.seatFreed.Broadcast()
	}
	s.mu.Unlock()

	s.ready.Post()
	if err := c.Wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	c.State = ClientDone
	s.mu.Unlock()
	return nil
}

// sitLocked places c on a seat already taken from the pool. Requires mu.
func (s *Shop) sitLocked(c *Client) {
	s.seats.Sit(c)
	c.State = ClientSeated
	c.SeatedAt = s.stamp.Since()
	s.observeLocked()
}

// Claim waits for the ready signal and hands the longest-seated unclaimed
// client to the server. The client keeps its seat until Finish.
func (s *Shop) Claim(ctx context.Context, serverID int) (*Client, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.seats.Claim()
	if c == nil {
		panic(fmt.Sprintf("server %d woke with no seated client", serverID))
	}
	c.State = ClientInService
	c.ServedBy = serverID
	c.StartedAt = s.stamp.Since()
	s.observeLocked()
	s.emitLocked(Event{Kind: EventServiceStart, ServerID: serverID, ClientID: c.ID})
	return c, nil
}

// Finish ends the service of c: the seat is vacated and returned to the
// capacity pool, queued clients are woken, the completion counter is
// incremented and finally the client's own completion signal fires.
func (s *Shop) Finish(serverID int, c *Client) {
	s.mu.Lock()
	c.State = ClientServed
	c.FinishedAt = s.stamp.Since()
	s.emitLocked(Event{Kind: EventServiceEnd, ServerID: serverID, ClientID: c.ID})
	s.seats.Vacate(c.ID)
	s.pool.Release()
	s.observeLocked()
	s.seatFreed.Broadcast()
	s.mu.Unlock()

	n := s.completed.Increment()
	logrus.Debugf("server %d finished client %d, completed=%d/%d", serverID, c.ID, n, s.completed.Target())
	c.finish()
}

// Completed returns the completion counter.
func (s *Shop) Completed() *CompletionCounter {
	return s.completed
}

// Snapshot returns the current shop state.
func (s *Shop) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shop) snapshotLocked() Snapshot {
	return Snapshot{
		Seats:     s.seats.Capacity(),
		Occupied:  s.seats.Occupied(),
		Free:      s.pool.Free(),
		Queued:    s.queue.IDs(),
		Seated:    s.seats.WaitingIDs(),
		InService: s.seats.InServiceIDs(),
		Completed: s.completed.Value(),
	}
}

func (s *Shop) observeLocked() {
	if s.observer != nil {
		s.observer(s.snapshotLocked())
	}
}

func (s *Shop) emitLocked(e Event) {
	e.Elapsed = s.stamp.Since()
	s.sink.Emit(e)
}
