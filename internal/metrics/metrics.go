// Package metrics exposes expandd's counters in Prometheus format.
//
// Only counts and timings are exported. Nothing typed, neither triggers
// nor expansions, ever reaches a metric or a label.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"expandd/internal/engine"
)

const namespace = "expandd"

// StatsSource reports the engine's running totals.
type StatsSource interface {
	Stats() engine.Stats
}

// Metrics owns the registry and the instruments recorded outside the
// engine.
type Metrics struct {
	registry *prometheus.Registry

	expandDuration prometheus.Histogram
	expandErrors   prometheus.Counter
	reloadErrors   prometheus.Counter
}

// New registers expansion timing and reload failures. Engine counters are
// added with Track.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_duration_seconds",
			Help:      "Time from trigger completion until the expansion is fully emitted.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		expandErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_errors_total",
			Help:      "Expansions aborted by a device write failure.",
		}),
		reloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_errors_total",
			Help:      "Trigger file reloads rejected because the file did not load.",
		}),
	}
	m.registry.MustRegister(m.expandDuration, m.expandErrors, m.reloadErrors)
	return m
}

// Track exports src's counters, read at scrape time.
func (m *Metrics) Track(src StatsSource) {
	counter := func(name, help string, value func(engine.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(src.Stats())) })
	}

	m.registry.MustRegister(
		counter("events_total", "Input events read from the keyboard.",
			func(s engine.Stats) uint64 { return s.Events }),
		counter("presses_total", "Key presses fed to the matcher.",
			func(s engine.Stats) uint64 { return s.Presses }),
		counter("resets_total", "Key presses that did not extend a match.",
			func(s engine.Stats) uint64 { return s.Resets }),
		counter("expansions_total", "Triggers recognized and expanded.",
			func(s engine.Stats) uint64 { return s.Expansions }),
		counter("reloads_total", "Trigger sets installed by hot reload.",
			func(s engine.Stats) uint64 { return s.Reloads }),
	)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ReloadFailed counts a rejected trigger file.
func (m *Metrics) ReloadFailed() {
	m.reloadErrors.Inc()
}

// Instrument wraps next so every expansion is timed.
func (m *Metrics) Instrument(next engine.Expander) engine.Expander {
	return &timedExpander{next: next, m: m, now: time.Now}
}

type timedExpander struct {
	next engine.Expander
	m    *Metrics
	now  func() time.Time
}

func (t *timedExpander) Expand(last uint16, depth int, expansion string) error {
	start := t.now()
	err := t.next.Expand(last, depth, expansion)
	if err != nil {
		t.m.expandErrors.Inc()
		return err
	}
	t.m.expandDuration.Observe(t.now().Sub(start).Seconds())
	return nil
}
