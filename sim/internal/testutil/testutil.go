// Package testutil provides shared test infrastructure for the barbershop
// simulator: fast timing presets, liveness bounds and float assertions used
// across sim/ and its sub-package tests.
package testutil

import (
	"math"
	"testing"
	"time"
)

// Timings groups the three durations a run depends on.
type Timings struct {
	ServiceTime     time.Duration
	ArrivalDelayMin time.Duration
	ArrivalDelayMax time.Duration
}

// FastTimings keeps runs in the tens of milliseconds while preserving the
// shape of the default configuration (service much longer than arrivals).
func FastTimings() Timings {
	return Timings{
		ServiceTime:     20 * time.Millisecond,
		ArrivalDelayMin: 1 * time.Millisecond,
		ArrivalDelayMax: 4 * time.Millisecond,
	}
}

// LivenessBound returns the wall-clock budget for a run to finish:
// service × ceil(clients/servers) plus the worst-case arrival spread, with slack.
func LivenessBound(t Timings, servers, clients int) time.Duration {
	rounds := (clients + servers - 1) / servers
	work := t.ServiceTime * time.Duration(rounds)
	arrivals := t.ArrivalDelayMax * time.Duration(clients)
	return 4*(work+arrivals) + 2*time.Second
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
