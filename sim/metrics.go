// Tracks run-wide and per-client metrics such as wait time (arrival to
// service start), turnaround (arrival to service end) and peak occupancy.

package sim

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about a run for final reporting.
// It is a Sink: the Simulator feeds it every event.
type Metrics struct {
	mu sync.Mutex

	CompletedClients int // Number of finished services
	SeatedOnArrival  int // Clients that found a free seat on arrival
	QueuedClients    int // Clients that had to join the overflow queue
	Promotions       int // Clients promoted from the queue to a seat
	PeakOccupied     int // Max number of simultaneously occupied seats
	PeakQueue        int // Max overflow queue length

	ServedBy    map[int]int           // server ID -> number of clients served
	WaitTimes   map[int]time.Duration // client ID -> arrival to service start
	Turnarounds map[int]time.Duration // client ID -> arrival to service end
	SimEnded    time.Duration         // elapsed time of all_clients_completed

	arrivals map[int]time.Duration
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ServedBy:    make(map[int]int),
		WaitTimes:   make(map[int]time.Duration),
		Turnarounds: make(map[int]time.Duration),
		arrivals:    make(map[int]time.Duration),
	}
}

func (m *Metrics) Emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch e.Kind {
	case EventSeated:
		m.SeatedOnArrival++
		m.arrivals[e.ClientID] = e.Elapsed
		m.PeakOccupied = max(m.PeakOccupied, e.Occupied)
	case EventQueued:
		m.QueuedClients++
		m.arrivals[e.ClientID] = e.Elapsed
		m.PeakQueue = max(m.PeakQueue, e.QueueLen)
	case EventPromoted:
		m.Promotions++
		m.PeakOccupied = max(m.PeakOccupied, e.Occupied)
	case EventServiceStart:
		if at, ok := m.arrivals[e.ClientID]; ok {
			m.WaitTimes[e.ClientID] = e.Elapsed - at
		}
	case EventServiceEnd:
		m.CompletedClients++
		m.ServedBy[e.ServerID]++
		if at, ok := m.arrivals[e.ClientID]; ok {
			m.Turnarounds[e.ClientID] = e.Elapsed - at
		}
	case EventAllCompleted:
		m.SimEnded = e.Elapsed
	}
}

// WaitStats returns the mean and the given quantile of client wait times in
// milliseconds. Both are zero when no client has started service.
func (m *Metrics) WaitStats(q float64) (mean, quantile float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return durationStats(m.WaitTimes, q)
}

// TurnaroundStats returns the mean and the given quantile of client
// turnaround times in milliseconds.
func (m *Metrics) TurnaroundStats(q float64) (mean, quantile float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return durationStats(m.Turnarounds, q)
}

func durationStats(values map[int]time.Duration, q float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	xs := make([]float64, 0, len(values))
	for _, d := range values {
		xs = append(xs, float64(d)/float64(time.Millisecond))
	}
	sort.Float64s(xs)
	return stat.Mean(xs, nil), stat.Quantile(q, stat.Empirical, xs, nil)
}

// Print displays aggregated metrics at the end of the run.
func (m *Metrics) Print(w io.Writer) {
	waitMean, waitP90 := m.WaitStats(0.9)
	turnMean, turnP90 := m.TurnaroundStats(0.9)

	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Completed Clients    : %d\n", m.CompletedClients)
	fmt.Fprintf(w, "Seated On Arrival    : %d\n", m.SeatedOnArrival)
	fmt.Fprintf(w, "Queued               : %d\n", m.QueuedClients)
	fmt.Fprintf(w, "Peak Occupied Seats  : %d\n", m.PeakOccupied)
	fmt.Fprintf(w, "Peak Queue Length    : %d\n", m.PeakQueue)
	if m.CompletedClients > 0 {
		fmt.Fprintf(w, "Average Wait         : %.2f ms (p90 %.2f ms)\n", waitMean, waitP90)
		fmt.Fprintf(w, "Average Turnaround   : %.2f ms (p90 %.2f ms)\n", turnMean, turnP90)
	}
	servers := make([]int, 0, len(m.ServedBy))
	for id := range m.ServedBy {
		servers = append(servers, id)
	}
	sort.Ints(servers)
	for _, id := range servers {
		fmt.Fprintf(w, "Server %-3d served    : %d\n", id, m.ServedBy[id])
	}
	fmt.Fprintf(w, "Elapsed              : %d ms\n", m.SimEnded.Milliseconds())
}
