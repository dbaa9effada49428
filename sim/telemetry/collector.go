// Package telemetry exposes a barbershop run as Prometheus metrics.
package telemetry

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/barbershop-sim/barbershop-sim/sim"
)

const namespace = "barbershop"

// Collector is a sim.Sink that keeps Prometheus metrics up to date.
type Collector struct {
	arrivals     *prometheus.CounterVec
	promotions   prometheus.Counter
	services     *prometheus.CounterVec
	occupied     prometheus.Gauge
	queueLength  prometheus.Gauge
	serviceTime  prometheus.Histogram
	runCompleted prometheus.Gauge

	mu      sync.Mutex
	started map[int]time.Duration // client ID -> service start
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		arrivals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_arrived_total",
			Help:      "Clients that arrived, by whether they found a seat or had to queue.",
		}, []string{"outcome"}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Clients promoted from the overflow queue to a seat.",
		}),
		services: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "services_total",
			Help:      "Finished services, by server.",
		}, []string{"server"}),
		occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seats_occupied",
			Help:      "Seats currently occupied.",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Clients currently in the overflow queue.",
		}),
		serviceTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_duration_seconds",
			Help:      "Observed duration of a service, start to finish.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		runCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_completed",
			Help:      "1 once every client has been served.",
		}),
		started: make(map[int]time.Duration),
	}
	for _, col := range []prometheus.Collector{
		c.arrivals, c.promotions, c.services, c.occupied, c.queueLength, c.serviceTime, c.runCompleted,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering barbershop metrics: %w", err)
		}
	}
	return c, nil
}

// Emit updates the metrics for one event.
func (c *Collector) Emit(e sim.Event) {
	switch e.Kind {
	case sim.EventSeated:
		c.arrivals.WithLabelValues("seated").Inc()
		c.occupied.Set(float64(e.Occupied))
	case sim.EventQueued:
		c.arrivals.WithLabelValues("queued").Inc()
		c.queueLength.Set(float64(e.QueueLen))
	case sim.EventPromoted:
		c.promotions.Inc()
		c.occupied.Set(float64(e.Occupied))
		c.queueLength.Dec()
	case sim.EventServiceStart:
		c.mu.Lock()
		c.started[e.ClientID] = e.Elapsed
		c.mu.Unlock()
	case sim.EventServiceEnd:
		c.services.WithLabelValues(strconv.Itoa(e.ServerID)).Inc()
		c.occupied.Dec()
		c.mu.Lock()
		if at, ok := c.started[e.ClientID]; ok {
			c.serviceTime.Observe((e.Elapsed - at).Seconds())
			delete(c.started, e.ClientID)
		}
		c.mu.Unlock()
	case sim.EventAllCompleted:
		c.runCompleted.Set(1)
	}
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
