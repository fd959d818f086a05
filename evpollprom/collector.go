// Package evpollprom exports the metrics of an [evpoll.Poll] to Prometheus.
package evpollprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeycumines/go-evpoll"
)

// MetricsSource is implemented by [evpoll.Poll].
type MetricsSource interface {
	Metrics() evpoll.Metrics
}

// Collector is a [prometheus.Collector] reading a snapshot of the source's
// metrics on every scrape. The source must be created with
// [evpoll.WithMetrics] for the values to be non-zero.
type Collector struct {
	source MetricsSource

	polls           *prometheus.Desc
	emptyPolls      *prometheus.Desc
	events          *prometheus.Desc
	interrupts      *prometheus.Desc
	pollErrors      *prometheus.Desc
	registryOps     *prometheus.Desc
	wakeups         *prometheus.Desc
	waitLatency     *prometheus.Desc
	waitLatencyMean *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector builds a collector for source, with every metric name
// prefixed by namespace (which may be empty).
func NewCollector(source MetricsSource, namespace string) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "evpoll", name), help, labels, nil)
	}
	return &Collector{
		source:          source,
		polls:           desc("polls_total", "Completed waits, including timeouts."),
		emptyPolls:      desc("empty_polls_total", "Waits that returned no events."),
		events:          desc("events_total", "Delivered readiness events."),
		interrupts:      desc("interrupts_total", "Waits cut short by a signal."),
		pollErrors:      desc("poll_errors_total", "Waits that failed."),
		registryOps:     desc("registry_operations_total", "Successful registry operations.", "op"),
		wakeups:         desc("wakeups_total", "Software readiness notifications delivered to a registered source."),
		waitLatency:     desc("wait_duration_seconds", "Time blocked per wait, over the most recent samples.", "percentile"),
		waitLatencyMean: desc("wait_duration_mean_seconds", "Mean time blocked per wait, over the most recent samples."),
	}
}

func (x *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- x.polls
	ch <- x.emptyPolls
	ch <- x.events
	ch <- x.interrupts
	ch <- x.pollErrors
	ch <- x.registryOps
	ch <- x.wakeups
	ch <- x.waitLatency
	ch <- x.waitLatencyMean
}

func (x *Collector) Collect(ch chan<- prometheus.Metric) {
	m := x.source.Metrics()

	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
	}
	counter(x.polls, m.Polls)
	counter(x.emptyPolls, m.EmptyPolls)
	counter(x.events, m.Events)
	counter(x.interrupts, m.Interrupts)
	counter(x.pollErrors, m.PollErrors)
	counter(x.registryOps, m.Registrations, "register")
	counter(x.registryOps, m.Reregistrations, "reregister")
	counter(x.registryOps, m.Deregistrations, "deregister")
	counter(x.wakeups, m.Wakeups)

	l := m.WaitLatency
	for _, q := range [...]struct {
		label string
		value float64
	}{
		{"p50", l.P50.Seconds()},
		{"p90", l.P90.Seconds()},
		{"p95", l.P95.Seconds()},
		{"p99", l.P99.Seconds()},
		{"max", l.Max.Seconds()},
	} {
		ch <- prometheus.MustNewConstMetric(x.waitLatency, prometheus.GaugeValue, q.value, q.label)
	}
	ch <- prometheus.MustNewConstMetric(x.waitLatencyMean, prometheus.GaugeValue, l.Mean.Seconds())
}
