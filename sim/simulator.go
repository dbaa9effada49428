// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// SimState is the driver lifecycle state.
type SimState string

const (
	StateInitializing SimState = "initializing"
	StateRunning      SimState = "running"
	StateDraining     SimState = "draining"
	StateDone         SimState = "done"
)

// Result describes a finished run.
type Result struct {
	RunID     uuid.UUID
	Config    Config
	Completed int           // completion counter value at the end of the run
	Elapsed   time.Duration // time from start to all_clients_completed
	Clients   []*Client     // every client, indexed by ID-1
	Metrics   *Metrics
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSink sends every event to sink in addition to the run Metrics.
func WithSink(sink Sink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithClock replaces the real clock, used for timestamps, service time and
// arrival delays.
func WithClock(clk clock.Clock) Option {
	return func(s *Simulator) { s.clk = clk }
}

// WithObserver installs a shop Observer.
func WithObserver(obs Observer) Option {
	return func(s *Simulator) { s.observer = obs }
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(s *Simulator) { s.runID = id }
}

// Simulator is the driver: it spawns servers and clients and waits for every
// client to be served. A Simulator runs once.
type Simulator struct {
	cfg      Config
	clk      clock.Clock
	sink     Sink
	observer Observer
	rng      *PartitionedRNG
	runID    uuid.UUID

	mu    sync.Mutex
	state SimState
}

// NewSimulator validates cfg and returns a Simulator in the initializing
// state. On a configuration error nothing else is created.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:   cfg,
		clk:   clock.RealClock{},
		sink:  NopSink{},
		rng:   NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		runID: uuid.New(),
		state: StateInitializing,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	return s, nil
}

// RunID identifies this run in logs and machine-readable output.
func (s *Simulator) RunID() uuid.UUID { return s.runID }

// State returns the current driver state.
func (s *Simulator) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulator) setState(st SimState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	logrus.Debugf("simulator state -> %s", st)
}

// Run executes the simulation and blocks until every client has been served
// and the completion counter has reached the client count. Servers are
// stopped on return. If ctx ends first, Run returns ErrAborted together with
// the partial Result.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.state != StateInitializing {
		s.mu.Unlock()
		return nil, fmt.Errorf("simulator already ran (state %s)", s.state)
	}
	s.mu.Unlock()

	cfg := s.cfg
	res := &Result{
		RunID:   s.runID,
		Config:  cfg,
		Clients: make([]*Client, 0, cfg.Clients),
		Metrics: NewMetrics(),
	}
	stamp := NewStamper(s.clk)
	sink := MultiSink{res.Metrics, s.sink}
	shop := NewShop(cfg.Seats, cfg.Clients, sink, stamp, s.observer)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := shop.CloseOn(runCtx)
	defer stop()

	logrus.Infof("Starting run %s with %d servers, %d seats, %d clients, service=%s",
		res.RunID, cfg.Servers, cfg.Seats, cfg.Clients, cfg.ServiceTime)
	s.setState(StateRunning)

	// Servers are daemons bound to runCtx; the deferred cancel stops them.
	for id := 1; id <= cfg.Servers; id++ {
		go NewServer(id, cfg.ServiceTime, s.clk).Run(runCtx, shop)
	}

	arrivals := NewUniformArrivals(cfg.ArrivalDelayMin, cfg.ArrivalDelayMax, s.rng.ForSubsystem(SubsystemArrivals))
	g, gctx := errgroup.WithContext(runCtx)
	for id := 1; id <= cfg.Clients; id++ {
		c := NewClient(id)
		res.Clients = append(res.Clients, c)
		g.Go(func() error {
			return shop.Admit(gctx, c)
		})
		if id == cfg.Clients {
			break
		}
		if err := sleep(runCtx, s.clk, arrivals.Next()); err != nil {
			break
		}
	}

	s.setState(StateDraining)
	err := g.Wait()
	if err == nil {
		select {
		case <-shop.Completed().Done():
		case <-runCtx.Done():
			err = runCtx.Err()
		}
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	res.Completed = shop.Completed().Value()
	res.Elapsed = stamp.Since()
	if err != nil {
		s.setState(StateDone)
		if errors.Is(err, errShopClosed) {
			err = ctx.Err()
		}
		return res, fmt.Errorf("%w: %d/%d served: %v", ErrAborted, res.Completed, cfg.Clients, err)
	}

	sink.Emit(Event{Kind: EventAllCompleted, Elapsed: res.Elapsed})
	logrus.Infof("Run %s complete: %d clients served in %s", res.RunID, res.Completed, res.Elapsed)
	s.setState(StateDone)
	return res, nil
}
