package actor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "robots"

// metrics are the collectors of one System. Every collector carries the
// system name as a constant label, so several systems can share a
// registerer.
type metrics struct {
	delivered        prometheus.Counter
	failures         prometheus.Counter
	restarts         prometheus.Counter
	deadLetters      prometheus.Counter
	futureViolations prometheus.Counter
	liveActors       prometheus.Gauge
	backlog          prometheus.GaugeFunc
}

// newMetrics creates the collectors of the system called name. The backlog
// gauge reads its value from backlog.
func newMetrics(name string, backlog func() float64) *metrics {
	labels := prometheus.Labels{"system": name}

	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "actor",
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &metrics{
		delivered: counter("messages_delivered_total",
			"Number of user messages handed to actors."),
		failures: counter("failures_total",
			"Number of actor failures."),
		restarts: counter("restarts_total",
			"Number of supervised actor restarts."),
		deadLetters: counter("dead_letters_total",
			"Number of messages that could not be delivered."),
		futureViolations: counter("future_violations_total",
			"Number of future protocol violations."),
		liveActors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "actor",
			Name:        "live",
			Help:        "Number of actors currently alive.",
			ConstLabels: labels,
		}),
		backlog: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "actor",
			Name:        "scheduler_backlog",
			Help:        "Number of scheduled actors waiting for a worker.",
			ConstLabels: labels,
		}, backlog),
	}
}

// collectors returns every collector.
func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.delivered, m.failures, m.restarts, m.deadLetters,
		m.futureViolations, m.liveActors, m.backlog,
	}
}

// register registers all collectors with reg. Collectors that are already
// registered are reused.
func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		err := reg.Register(c)

		var are prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &are) {
			return err
		}
	}

	return nil
}

// unregister removes all collectors from reg.
func (m *metrics) unregister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}
