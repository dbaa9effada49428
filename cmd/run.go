package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
	"github.com/barbershop-sim/barbershop-sim/sim/telemetry"
	"github.com/barbershop-sim/barbershop-sim/sim/trace"
)

// runSimulation executes one run and prints its events and reports. In text
// mode everything goes to stdout; in json mode stdout carries only event
// lines and the reports go to stderr.
func runSimulation(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	runID := uuid.New()

	reg := prometheus.NewRegistry()
	collector, err := telemetry.NewCollector(reg)
	if err != nil {
		return err
	}
	recorder := sim.NewRecorder()

	var text *textPrinter
	report := stdout
	sinks := sim.MultiSink{collector, recorder}
	switch opts.Format {
	case formatJSON:
		sinks = append(sinks, newJSONPrinter(stdout, runID))
		report = stderr
	default:
		text = newTextPrinter(stdout, opts.NoColor)
		sinks = append(sinks, text)
	}

	s, err := sim.NewSimulator(opts.Config, sim.WithSink(sinks), sim.WithRunID(runID))
	if err != nil {
		return err
	}

	if text != nil {
		text.banner("barbershop simulation started")
	}
	res, runErr := s.Run(ctx)
	if text != nil && runErr == nil {
		text.banner("barbershop simulation ended")
	}
	if res != nil {
		res.Metrics.Print(report)
	}

	if opts.Verify {
		if runErr != nil {
			logrus.Warnf("Skipping trace check of incomplete run %s", runID)
		} else {
			events := recorder.Events()
			violations := trace.Check(events, opts.Config.Seats)
			verifyReport(report, events, opts.Config.Seats, trace.Summarize(events), violations)
			if len(violations) > 0 {
				return fmt.Errorf("run %s: trace check found %d violations", runID, len(violations))
			}
		}
	}

	if opts.Metrics {
		if err := telemetry.WriteText(report, reg); err != nil {
			return err
		}
	}
	return runErr
}
