package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
)

func fastOptions(format string) runOptions {
	return runOptions{
		Config: sim.Config{
			Servers:         2,
			Seats:           2,
			Clients:         5,
			ServiceTime:     10 * time.Millisecond,
			ArrivalDelayMin: time.Millisecond,
			ArrivalDelayMax: 3 * time.Millisecond,
			Seed:            sim.DefaultSeed,
		},
		Format:  format,
		NoColor: true,
	}
}

func TestRunSimulation_TextOutput_BannersEventsAndSummary(t *testing.T) {
	// GIVEN a small valid run in text mode
	var stdout, stderr bytes.Buffer
	opts := fastOptions(formatText)
	opts.Verify = true

	// WHEN the run completes
	err := runSimulation(context.Background(), opts, &stdout, &stderr)

	// THEN stdout carries banners, events, the summary and the trace check
	require.NoError(t, err)
	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "======== barbershop simulation started ========\n"))
	assert.Contains(t, out, "======== barbershop simulation ended ========")
	assert.Equal(t, 5, strings.Count(out, "service_finished("))
	assert.Contains(t, out, "all_clients_completed()")
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, "Violations           : none")
	assert.NotContains(t, out, "\x1b[", "--no-color must strip escape codes")
	assert.Empty(t, stderr.String())
}

func TestRunSimulation_JSONOutput_OneRecordPerEvent(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := fastOptions(formatJSON)
	opts.Metrics = true

	err := runSimulation(context.Background(), opts, &stdout, &stderr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	// 5 arrivals (seated or queued), promotions, 5 starts, 5 finishes, 1 completion
	require.GreaterOrEqual(t, len(lines), 16)

	runIDs := make(map[string]bool)
	var last map[string]any
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		runIDs[rec["run_id"].(string)] = true
		assert.Contains(t, rec, "elapsed_ms")
		assert.Contains(t, rec, "kind")
		last = rec
	}
	assert.Len(t, runIDs, 1, "every record must carry the same run ID")
	assert.Equal(t, string(sim.EventAllCompleted), last["kind"])

	assert.Contains(t, stderr.String(), "=== Simulation Metrics ===")
	assert.Contains(t, stderr.String(), "barbershop_services_total")
	assert.NotContains(t, stdout.String(), "========")
}

func TestRunSimulation_Cancelled_ReturnsAborted(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := fastOptions(formatText)
	opts.Config.ServiceTime = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := runSimulation(ctx, opts, &stdout, &stderr)

	assert.True(t, errors.Is(err, sim.ErrAborted))
	assert.Equal(t, 1, exitCode(err))
	assert.NotContains(t, stdout.String(), "simulation ended")
}

func TestRunSimulation_InvalidConfig_NoEvents(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := fastOptions(formatText)
	opts.Config.Seats = 0

	err := runSimulation(context.Background(), opts, &stdout, &stderr)

	require.Error(t, err)
	assert.True(t, sim.IsConfigError(err))
	assert.Empty(t, stdout.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(&sim.ConfigError{Field: sim.FieldSeats, Reason: "must be greater than zero"}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestRunCmd_InvalidStdinCount_ConfigErrorAndNoEvents(t *testing.T) {
	// GIVEN the run command with servers read from stdin as "abc"
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs([]string{"run", "--seats", "2", "--clients", "3", "--no-color"})
	rootCmd.SetIn(strings.NewReader("abc\n"))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	// WHEN executed
	err := rootCmd.Execute()

	// THEN it fails as a configuration error before any event is printed
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, err.Error(), "servers")
	assert.Contains(t, stdout.String(), "Enter the number of servers: ")
	assert.NotContains(t, stdout.String(), "client_")
}
