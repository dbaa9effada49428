package sim

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// EventKind identifies a domain event emitted by the engine.
type EventKind string

const (
	EventSeated       EventKind = "client_arrived_and_seated"
	EventQueued       EventKind = "client_queued"
	EventPromoted     EventKind = "client_promoted_from_queue"
	EventServiceStart EventKind = "service_started"
	EventServiceEnd   EventKind = "service_finished"
	EventAllCompleted EventKind = "all_clients_completed"
)

// Event is a single timestamped domain event. Fields that do not apply to a
// kind are left at zero (e.g. ServerID for EventQueued).
type Event struct {
	Kind     EventKind     `json:"kind"`
	Elapsed  time.Duration `json:"-"`
	ClientID int           `json:"client_id,omitempty"`
	ServerID int           `json:"server_id,omitempty"`
	Occupied int           `json:"occupied,omitempty"`
	QueueLen int           `json:"queue_length,omitempty"`
}

// ElapsedMillis returns the event timestamp in whole milliseconds since the
// start of the run.
func (e Event) ElapsedMillis() int64 {
	return e.Elapsed.Milliseconds()
}

func (e Event) String() string {
	var body string
	switch e.Kind {
	case EventSeated, EventPromoted:
		body = fmt.Sprintf("%s(client=%d, occupied=%d)", e.Kind, e.ClientID, e.Occupied)
	case EventQueued:
		body = fmt.Sprintf("%s(client=%d, queue_length=%d)", e.Kind, e.ClientID, e.QueueLen)
	case EventServiceStart, EventServiceEnd:
		body = fmt.Sprintf("%s(server=%d, client=%d)", e.Kind, e.ServerID, e.ClientID)
	default:
		body = fmt.Sprintf("%s()", e.Kind)
	}
	return fmt.Sprintf("[%d ms] %s", e.ElapsedMillis(), body)
}

// Sink receives domain events. Implementations must be safe for concurrent
// use: servers and clients emit from their own goroutines.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Recorder is a Sink that keeps every event in memory, in emission order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: make([]Event, 0)}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Stamper is the event sink's clock reference: it stamps events with the
// elapsed time since the start of the run.
type Stamper struct {
	clk   clock.PassiveClock
	start time.Time
}

// NewStamper anchors a Stamper at the current time of clk.
func NewStamper(clk clock.PassiveClock) *Stamper {
	return &Stamper{clk: clk, start: clk.Now()}
}

// Since returns the elapsed time since the Stamper was created.
func (s *Stamper) Since() time.Duration {
	return s.clk.Since(s.start)
}

// Start returns the anchor time.
func (s *Stamper) Start() time.Time {
	return s.start
}
