package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
	"github.com/barbershop-sim/barbershop-sim/sim/trace"
)

// textPrinter writes one colored line per event.
type textPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[sim.EventKind]*color.Color
}

func newTextPrinter(w io.Writer, noColor bool) *textPrinter {
	colors := map[sim.EventKind]*color.Color{
		sim.EventSeated:       color.New(color.FgYellow),
		sim.EventQueued:       color.New(color.FgRed),
		sim.EventPromoted:     color.New(color.FgCyan),
		sim.EventServiceStart: color.New(color.FgGreen),
		sim.EventServiceEnd:   color.New(color.FgGreen),
		sim.EventAllCompleted: color.New(color.FgYellow),
	}
	if noColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}
	return &textPrinter{w: w, colors: colors}
}

func (p *textPrinter) Emit(e sim.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.colors[e.Kind].Fprintln(p.w, e.String()); err != nil {
		logrus.Warnf("writing event: %v", err)
	}
}

// banner prints a start or end line in the same color as run-level events.
func (p *textPrinter) banner(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors[sim.EventAllCompleted].Fprintf(p.w, "======== %s ========\n", text)
}

// jsonRecord is one line of --format json output.
type jsonRecord struct {
	RunID     string `json:"run_id"`
	ElapsedMS int64  `json:"elapsed_ms"`
	sim.Event
}

// jsonPrinter writes events as JSON lines tagged with the run ID.
type jsonPrinter struct {
	mu    sync.Mutex
	enc   *json.Encoder
	runID string
}

func newJSONPrinter(w io.Writer, runID uuid.UUID) *jsonPrinter {
	return &jsonPrinter{enc: json.NewEncoder(w), runID: runID.String()}
}

func (p *jsonPrinter) Emit(e sim.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := jsonRecord{RunID: p.runID, ElapsedMS: e.ElapsedMillis(), Event: e}
	if err := p.enc.Encode(rec); err != nil {
		logrus.Warnf("encoding event %s: %v", e.Kind, err)
	}
}

// verifyReport prints the trace summary and any ordering violations.
func verifyReport(w io.Writer, events []sim.Event, seats int, summary *trace.Summary, violations []trace.Violation) {
	fmt.Fprintf(w, "=== Trace Check ===\n")
	fmt.Fprintf(w, "Events               : %d\n", len(events))
	fmt.Fprintf(w, "Max Queue Length     : %d\n", summary.MaxQueueLength)
	fmt.Fprintf(w, "Peak Occupied Seats  : %d / %d\n", summary.PeakOccupied, seats)
	fmt.Fprintf(w, "Concurrent Services  : %d\n", summary.MaxConcurrentServices)
	if len(violations) == 0 {
		fmt.Fprintf(w, "Violations           : none\n")
		return
	}
	fmt.Fprintf(w, "Violations           : %d\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}
