package trace

import (
	"fmt"

	"github.com/barbershop-sim/barbershop-sim/sim"
)

// clientTrack follows one client through the stream.
type clientTrack struct {
	arrived  bool
	queued   bool
	seated   bool
	started  bool
	finished bool
	server   int
}

// Check replays an event stream against a shop with the given number of
// seats and returns every violation found, in stream order:
//   - a client arrives once, is seated at most once, and is promoted only from the queue
//   - queued clients are promoted in the order they queued
//   - service starts only for a seated client and finishes once, on the same server
//   - a server serves one client at a time
//   - reported occupancy never exceeds the seat count
//   - all_clients_completed is last and follows one finished service per arrival
func Check(events []sim.Event, seats int) []Violation {
	var out []Violation
	fail := func(i, id int, format string, args ...any) {
		out = append(out, Violation{Index: i, ClientID: id, Message: fmt.Sprintf(format, args...)})
	}

	clients := make(map[int]*clientTrack)
	track := func(id int) *clientTrack {
		ct, ok := clients[id]
		if !ok {
			ct = &clientTrack{}
			clients[id] = ct
		}
		return ct
	}
	busy := make(map[int]int) // server -> client in service
	var queue []int
	arrivals, finished := 0, 0

	for i, e := range events {
		switch e.Kind {
		case sim.EventSeated, sim.EventQueued:
			ct := track(e.ClientID)
			if ct.arrived {
				fail(i, e.ClientID, "arrived twice")
			}
			ct.arrived = true
			arrivals++
			if e.Kind == sim.EventQueued {
				ct.queued = true
				queue = append(queue, e.ClientID)
				if e.QueueLen != len(queue) {
					fail(i, e.ClientID, "queue length %d, expected %d", e.QueueLen, len(queue))
				}
			} else {
				ct.seated = true
			}
			if e.Kind == sim.EventSeated && e.Occupied > seats {
				fail(i, e.ClientID, "occupancy %d exceeds %d seats", e.Occupied, seats)
			}

		case sim.EventPromoted:
			ct := track(e.ClientID)
			switch {
			case !ct.queued:
				fail(i, e.ClientID, "promoted without being queued")
			case ct.seated:
				fail(i, e.ClientID, "promoted while already seated")
			case len(queue) == 0 || queue[0] != e.ClientID:
				fail(i, e.ClientID, "promoted out of order, queue head is %v", head(queue))
			}
			if len(queue) > 0 && queue[0] == e.ClientID {
				queue = queue[1:]
			}
			ct.seated = true
			if e.Occupied > seats {
				fail(i, e.ClientID, "occupancy %d exceeds %d seats", e.Occupied, seats)
			}

		case sim.EventServiceStart:
			ct := track(e.ClientID)
			if !ct.seated {
				fail(i, e.ClientID, "service started before the client was seated")
			}
			if ct.started {
				fail(i, e.ClientID, "service started twice")
			}
			if cur, ok := busy[e.ServerID]; ok {
				fail(i, e.ClientID, "server %d already serving client %d", e.ServerID, cur)
			}
			ct.started = true
			ct.server = e.ServerID
			busy[e.ServerID] = e.ClientID

		case sim.EventServiceEnd:
			ct := track(e.ClientID)
			if !ct.started {
				fail(i, e.ClientID, "service finished before it started")
			} else if ct.server != e.ServerID {
				fail(i, e.ClientID, "started on server %d, finished on server %d", ct.server, e.ServerID)
			}
			if ct.finished {
				fail(i, e.ClientID, "served twice")
			}
			ct.finished = true
			delete(busy, e.ServerID)
			finished++

		case sim.EventAllCompleted:
			if i != len(events)-1 {
				fail(i, 0, "all_clients_completed is not the last event")
			}
			if finished != arrivals {
				fail(i, 0, "completed with %d of %d clients served", finished, arrivals)
			}
		}
	}
	return out
}

func head(q []int) any {
	if len(q) == 0 {
		return "empty"
	}
	return q[0]
}
