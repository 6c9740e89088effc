// Package metrics instruments reactor bindings with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "reactor"

// Collector counts binding activity. All methods are safe on a nil
// Collector, so instrumentation can stay unconditional.
type Collector struct {
	Constructed   prometheus.Counter
	Activations   prometheus.Counter
	Pushes        prometheus.Counter
	Dispatches    prometheus.Counter
	Unsubscribes  prometheus.Counter
	Subscriptions prometheus.Gauge
}

// New creates a collector whose metrics live under namespace
// (DefaultNamespace when empty). Register it to expose them.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Collector{
		Constructed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_constructed_total",
			Help:      "Reactions invoked to build a binding pipeline.",
		}),
		Activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Binding activations committed.",
		}),
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_pushed_total",
			Help:      "Input values pushed into binding input subjects.",
		}),
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Output events delivered to dispatchers.",
		}),
		Unsubscribes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsubscribes_total",
			Help:      "Dispatcher subscriptions torn down.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Dispatcher subscriptions currently live.",
		}),
	}
}

// Register registers the collector with r.
func (c *Collector) Register(r prometheus.Registerer) error {
	return r.Register(c)
}

func (c *Collector) metrics() []prometheus.Collector {
	return []prometheus.Collector{
		c.Constructed,
		c.Activations,
		c.Pushes,
		c.Dispatches,
		c.Unsubscribes,
		c.Subscriptions,
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics() {
		m.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.metrics() {
		m.Collect(ch)
	}
}

func (c *Collector) ReactionConstructed() {
	if c != nil {
		c.Constructed.Inc()
	}
}

func (c *Collector) Activated() {
	if c != nil {
		c.Activations.Inc()
	}
}

func (c *Collector) InputsPushed(n int) {
	if c != nil {
		c.Pushes.Add(float64(n))
	}
}

func (c *Collector) EventDispatched() {
	if c != nil {
		c.Dispatches.Inc()
	}
}

func (c *Collector) Subscribed() {
	if c != nil {
		c.Subscriptions.Inc()
	}
}

func (c *Collector) Unsubscribed() {
	if c != nil {
		c.Subscriptions.Dec()
		c.Unsubscribes.Inc()
	}
}
