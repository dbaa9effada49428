package sim

import (
	"fmt"
	"sort"
)

// SeatRegistry holds the clients currently occupying seats. A seat stays
// occupied from the moment a client sits down until its service finishes.
//
// Seated clients are claimed by servers in seating order. Not safe for
// concurrent use; the Shop guards it with its lock.
type SeatRegistry struct {
	capacity  int
	waiting   []*Client       // seated, not yet claimed, in seating order
	inService map[int]*Client // claimed by a server, keyed by client ID
}

// NewSeatRegistry creates an empty registry with the given number of seats.
func NewSeatRegistry(capacity int) *SeatRegistry {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewSeatRegistry: capacity must be > 0, got %d", capacity))
	}
	return &SeatRegistry{
		capacity:  capacity,
		waiting:   make([]*Client, 0, capacity),
		inService: make(map[int]*Client, capacity),
	}
}

// Sit places a client on a free seat. Panics if every seat is occupied or the
// client is already seated.
func (r *SeatRegistry) Sit(c *Client) {
	if r.Occupied() >= r.capacity {
		panic(fmt.Sprintf("Sit: all %d seats occupied, cannot seat client %d", r.capacity, c.ID))
	}
	if r.Contains(c.ID) {
		panic(fmt.Sprintf("Sit: client %d already seated", c.ID))
	}
	r.waiting = append(r.waiting, c)
}

// Claim hands the longest-seated unclaimed client to a server. The client
// keeps its seat until Vacate. Returns nil if no seated client is unclaimed.
func (r *SeatRegistry) Claim() *Client {
	if len(r.waiting) == 0 {
		return nil
	}
	c := r.waiting[0]
	r.waiting[0] = nil
	r.waiting = r.waiting[1:]
	r.inService[c.ID] = c
	return c
}

// Vacate frees the seat of a client whose service has finished.
// Panics if the client is not in service.
func (r *SeatRegistry) Vacate(id int) *Client {
	c, ok := r.inService[id]
	if !ok {
		panic(fmt.Sprintf("Vacate: client %d is not in service", id))
	}
	delete(r.inService, id)
	return c
}

// Occupied returns the number of occupied seats.
func (r *SeatRegistry) Occupied() int {
	return len(r.waiting) + len(r.inService)
}

// Capacity returns the number of seats.
func (r *SeatRegistry) Capacity() int {
	return r.capacity
}

// Unclaimed returns the number of seated clients not yet claimed by a server.
func (r *SeatRegistry) Unclaimed() int {
	return len(r.waiting)
}

// Contains reports whether the client occupies a seat.
func (r *SeatRegistry) Contains(id int) bool {
	if _, ok := r.inService[id]; ok {
		return true
	}
	for _, c := range r.waiting {
		if c.ID == id {
			return true
		}
	}
	return false
}

// WaitingIDs returns the IDs of seated, unclaimed clients in seating order.
func (r *SeatRegistry) WaitingIDs() []int {
	ids := make([]int, len(r.waiting))
	for i, c := range r.waiting {
		ids[i] = c.ID
	}
	return ids
}

// InServiceIDs returns the IDs of clients being served, ascending.
func (r *SeatRegistry) InServiceIDs() []int {
	ids := make([]int, 0, len(r.inService))
	for id := range r.inService {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
