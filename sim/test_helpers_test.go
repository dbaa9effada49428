package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/barbershop-sim/barbershop-sim/sim/internal/testutil"
)

// fastConfig returns a valid Config with test-friendly timings.
func fastConfig(servers, seats, clients int) Config {
	tm := testutil.FastTimings()
	return Config{
		Servers:         servers,
		Seats:           seats,
		Clients:         clients,
		ServiceTime:     tm.ServiceTime,
		ArrivalDelayMin: tm.ArrivalDelayMin,
		ArrivalDelayMax: tm.ArrivalDelayMax,
		Seed:            DefaultSeed,
	}
}

// invariantObserver checks the shop invariants on every snapshot and keeps
// the violations for the test to report.
type invariantObserver struct {
	mu           sync.Mutex
	snapshots    int
	maxOccupied  int
	maxQueue     int
	violations   []string
	lastComplete int
}

func (o *invariantObserver) observe(s Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
	o.maxOccupied = max(o.maxOccupied, s.Occupied)
	o.maxQueue = max(o.maxQueue, len(s.Queued))

	if s.Occupied+s.Free != s.Seats {
		o.violations = append(o.violations, fmt.Sprintf("occupied(%d)+free(%d) != seats(%d)", s.Occupied, s.Free, s.Seats))
	}
	if s.Occupied > s.Seats {
		o.violations = append(o.violations, fmt.Sprintf("occupied(%d) > seats(%d)", s.Occupied, s.Seats))
	}
	if s.Occupied != len(s.Seated)+len(s.InService) {
		o.violations = append(o.violations, fmt.Sprintf("occupied(%d) != seated(%d)+in service(%d)", s.Occupied, len(s.Seated), len(s.InService)))
	}
	seen := make(map[int]string)
	for _, group := range []struct {
		name string
		ids  []int
	}{{"queue", s.Queued}, {"seated", s.Seated}, {"in service", s.InService}} {
		for _, id := range group.ids {
			if prev, ok := seen[id]; ok {
				o.violations = append(o.violations, fmt.Sprintf("client %d in both %s and %s", id, prev, group.name))
			}
			seen[id] = group.name
		}
	}
	if s.Completed < o.lastComplete {
		o.violations = append(o.violations, fmt.Sprintf("completion counter went back from %d to %d", o.lastComplete, s.Completed))
	}
	o.lastComplete = s.Completed
}

func (o *invariantObserver) Violations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.violations...)
}

// indexOf returns the position of the first event matching kind and client,
// or -1.
func indexOf(events []Event, kind EventKind, clientID int) int {
	for i, e := range events {
		if e.Kind == kind && e.ClientID == clientID {
			return i
		}
	}
	return -1
}

// clientsOf returns the client IDs of all events of the given kind, in order.
func clientsOf(events []Event, kind EventKind) []int {
	var ids []int
	for _, e := range events {
		if e.Kind == kind {
			ids = append(ids, e.ClientID)
		}
	}
	return ids
}

// seatingOrder returns client IDs in the order they took a seat, whether on
// arrival or by promotion from the queue.
func seatingOrder(events []Event) []int {
	var ids []int
	for _, e := range events {
		if e.Kind == EventSeated || e.Kind == EventPromoted {
			ids = append(ids, e.ClientID)
		}
	}
	return ids
}

// waitTimeout is a generous cap for a single blocking step in unit tests.
const waitTimeout = 2 * time.Second
