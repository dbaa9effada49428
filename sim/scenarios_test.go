package sim_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/barbershop-sim/barbershop-sim/sim"
	"github.com/barbershop-sim/barbershop-sim/sim/trace"
)

type outcome struct {
	res *sim.Result
	err error
}

// start launches a run in the background and returns its recorder and a
// channel delivering the outcome.
func start(ctx context.Context, cfg sim.Config) (*sim.Recorder, <-chan outcome) {
	rec := sim.NewRecorder()
	s, err := sim.NewSimulator(cfg, sim.WithSink(rec))
	Expect(err).NotTo(HaveOccurred())
	done := make(chan outcome, 1)
	go func() {
		res, err := s.Run(ctx)
		done <- outcome{res, err}
	}()
	return rec, done
}

func position(events []sim.Event, kind sim.EventKind, clientID int) int {
	for i, e := range events {
		if e.Kind == kind && e.ClientID == clientID {
			return i
		}
	}
	return -1
}

var _ = Describe("Barbershop run", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	})

	AfterEach(func() {
		cancel()
	})

	Context("with one server, one seat and three staggered clients", func() {
		var cfg sim.Config

		BeforeEach(func() {
			cfg = sim.DefaultConfig()
			cfg.Servers, cfg.Seats, cfg.Clients = 1, 1, 3
			cfg.ServiceTime = 60 * time.Millisecond
			cfg.ArrivalDelayMin, cfg.ArrivalDelayMax = 10*time.Millisecond, 10*time.Millisecond
		})

		It("seats client 1 and promotes 2 then 3 as each service ends", func() {
			rec, done := start(ctx, cfg)

			var out outcome
			Eventually(done, 5*time.Second).Should(Receive(&out))
			Expect(out.err).NotTo(HaveOccurred())
			Expect(out.res.Completed).To(Equal(3))

			events := rec.Events()
			Expect(events[0].Kind).To(Equal(sim.EventSeated))
			Expect(events[0].ClientID).To(Equal(1))

			summary := trace.Summarize(events)
			Expect(summary.QueueOrder).To(Equal([]int{2, 3}))
			Expect(summary.PromotionOrder).To(Equal([]int{2, 3}))

			Expect(position(events, sim.EventPromoted, 2)).To(BeNumerically(">", position(events, sim.EventServiceEnd, 1)))
			Expect(position(events, sim.EventPromoted, 3)).To(BeNumerically(">", position(events, sim.EventServiceEnd, 2)))
			Expect(trace.Check(events, cfg.Seats)).To(BeEmpty())
		})
	})

	Context("with two servers, two seats and simultaneous arrivals", func() {
		var cfg sim.Config

		BeforeEach(func() {
			cfg = sim.DefaultConfig()
			cfg.Servers, cfg.Seats, cfg.Clients = 2, 2, 2
			cfg.ServiceTime = 80 * time.Millisecond
			cfg.ArrivalDelayMin, cfg.ArrivalDelayMax = 0, 0
		})

		It("seats both clients and serves them concurrently on distinct servers", func() {
			rec, done := start(ctx, cfg)

			var out outcome
			Eventually(done, 5*time.Second).Should(Receive(&out))
			Expect(out.err).NotTo(HaveOccurred())

			events := rec.Events()
			summary := trace.Summarize(events)
			Expect(summary.Counts[sim.EventSeated]).To(Equal(2))
			Expect(summary.Counts[sim.EventQueued]).To(BeZero())
			Expect(summary.PerServer).To(HaveLen(2))
			Expect(summary.MaxConcurrentServices).To(Equal(2))
		})
	})

	Context("with an invalid configuration", func() {
		It("never starts and reports a configuration error", func() {
			cfg := sim.DefaultConfig()
			cfg.Servers, cfg.Seats, cfg.Clients = 0, 1, 1

			s, err := sim.NewSimulator(cfg)
			Expect(s).To(BeNil())
			Expect(sim.IsConfigError(err)).To(BeTrue())
		})
	})

	Context("with cancellation mid-run", func() {
		It("stops promptly and reports the run as aborted", func() {
			cfg := sim.DefaultConfig()
			cfg.Servers, cfg.Seats, cfg.Clients = 1, 1, 3
			cfg.ServiceTime = time.Minute
			cfg.ArrivalDelayMin, cfg.ArrivalDelayMax = 0, 0

			runCtx, stop := context.WithCancel(ctx)
			rec, done := start(runCtx, cfg)
			Eventually(rec.Len).Should(BeNumerically(">=", 2))
			stop()

			var out outcome
			Eventually(done, 2*time.Second).Should(Receive(&out))
			Expect(out.err).To(MatchError(sim.ErrAborted))
		})
	})
})
