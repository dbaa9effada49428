package trace

import "github.com/barbershop-sim/barbershop-sim/sim"

// Summary aggregates an event stream.
type Summary struct {
	Counts                map[sim.EventKind]int
	ArrivalOrder          []int       // clients in the order they arrived (seated or queued)
	QueueOrder            []int       // clients in the order they joined the overflow queue
	PromotionOrder        []int       // clients in the order they left the queue for a seat
	ServiceOrder          []int       // clients in the order their service started
	PerServer             map[int]int // server ID -> services finished
	MaxQueueLength        int
	PeakOccupied          int
	MaxConcurrentServices int
	Completed             bool // all_clients_completed was emitted
}

// Summarize computes aggregate statistics from an event stream.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(events []sim.Event) *Summary {
	s := &Summary{
		Counts:    make(map[sim.EventKind]int),
		PerServer: make(map[int]int),
	}
	inService := 0
	for _, e := range events {
		s.Counts[e.Kind]++
		switch e.Kind {
		case sim.EventSeated:
			s.ArrivalOrder = append(s.ArrivalOrder, e.ClientID)
			s.PeakOccupied = max(s.PeakOccupied, e.Occupied)
		case sim.EventQueued:
			s.ArrivalOrder = append(s.ArrivalOrder, e.ClientID)
			s.QueueOrder = append(s.QueueOrder, e.ClientID)
			s.MaxQueueLength = max(s.MaxQueueLength, e.QueueLen)
		case sim.EventPromoted:
			s.PromotionOrder = append(s.PromotionOrder, e.ClientID)
			s.PeakOccupied = max(s.PeakOccupied, e.Occupied)
		case sim.EventServiceStart:
			s.ServiceOrder = append(s.ServiceOrder, e.ClientID)
			inService++
			s.MaxConcurrentServices = max(s.MaxConcurrentServices, inService)
		case sim.EventServiceEnd:
			s.PerServer[e.ServerID]++
			inService--
		case sim.EventAllCompleted:
			s.Completed = true
		}
	}
	return s
}
